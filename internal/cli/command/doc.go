// Package command defines healthqr-cli's commands on urfave/cli/v2.
//
// token commands run offline against pkg/qrtoken; patient and scan
// commands call a healthqr-server; config edits the local settings file.
// Every command writes through the --output formatter to App.Writer.
package command

package command

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/Saiguru2554/Health-Link-Qr/internal/cli/connection"
	"github.com/Saiguru2554/Health-Link-Qr/internal/server/httpserver/handler"
)

// ScanCommand returns the scan command.
func ScanCommand() *cli.Command {
	return &cli.Command{
		Name:      "scan",
		Usage:     "Open a scanned link the way a phone would",
		ArgsUsage: "URL | PATIENT_ID TOKEN",
		Description: "Fetches a scan link and prints the outcome. With two arguments the\n" +
			"link is built against --server.",
		Action: scanAction,
	}
}

func scanAction(c *cli.Context) error {
	client, flags, err := newClient(c)
	if err != nil {
		return err
	}

	var target string
	switch c.NArg() {
	case 1:
		target = c.Args().First()
		if !strings.Contains(target, "://") {
			return fmt.Errorf("expected a scan URL, got %q", target)
		}
	case 2:
		target = client.BaseURL() + "/patient/" + url.PathEscape(c.Args().Get(0)) + "?code=" + c.Args().Get(1)
	default:
		return fmt.Errorf("usage: scan URL | scan PATIENT_ID TOKEN")
	}

	ctx, cancel := requestContext(c, flags)
	defer cancel()

	resp, err := client.Do(ctx, "GET", target, nil)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var res handler.ScanResponse
	err = connection.ParseResponse(resp, &res)

	var apiErr *connection.APIError
	switch {
	case err == nil:
		v := scanView{Status: res.Status, Message: res.Message, Summary: res.Summary}
		if res.Patient != nil {
			pv := patientToView(res.Patient)
			v.Patient = &pv
			v.PatientID = res.Patient.ID
		}
		return render(c, flags, v)

	case errors.As(err, &apiErr) && len(apiErr.Details) > 0:
		var details handler.ScanErrorDetails
		if jsonErr := json.Unmarshal(apiErr.Details, &details); jsonErr != nil || details.Status == "" {
			return err
		}
		v := scanView{Status: details.Status, Message: apiErr.Message, PatientID: details.PatientID}
		if rerr := render(c, flags, v); rerr != nil {
			return rerr
		}
		return fmt.Errorf("scan rejected: %s", details.Status)

	default:
		return err
	}
}

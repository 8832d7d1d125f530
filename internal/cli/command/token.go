package command

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/Saiguru2554/Health-Link-Qr/internal/core/service"
	"github.com/Saiguru2554/Health-Link-Qr/pkg/qrtoken"
)

// TokenCommand returns the offline token subcommand group.
func TokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "Encode, verify and render QR tokens offline",
		Subcommands: []*cli.Command{
			{
				Name:      "encode",
				Usage:     "Encode a token and scan link for a patient",
				ArgsUsage: "PATIENT_ID",
				Flags:     issueFlags(),
				Action:    tokenEncode,
			},
			{
				Name:      "verify",
				Usage:     "Verify a token or scan link",
				ArgsUsage: "TOKEN|URL",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "max-age",
						Usage: "Age after which extended codes count as expired",
						Value: qrtoken.DefaultMaxAge,
					},
				},
				Action: tokenVerify,
			},
			{
				Name:      "inspect",
				Usage:     "Decode a token without judging it",
				ArgsUsage: "TOKEN|URL",
				Action:    tokenInspect,
			},
			{
				Name:      "qr",
				Usage:     "Write a PNG QR code for a patient",
				ArgsUsage: "PATIENT_ID",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:     "out",
						Aliases:  []string{"f"},
						Usage:    "PNG file to write",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "size",
						Usage: "Image size in pixels",
						Value: service.DefaultQRSize,
					},
				}, issueFlags()...),
				Action: tokenQR,
			},
		},
	}
}

// issueFlags are shared by the commands that issue a code.
func issueFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "minimal",
			Usage: "Issue the minimal shape (no timestamp, never expires)",
		},
		&cli.StringFlag{
			Name:  "base-url",
			Usage: "Prefix for scan links (default from CLI config)",
		},
		&cli.Int64Flag{
			Name:  "issued-at",
			Usage: "Issue time in Unix milliseconds, for reprinting a card",
		},
	}
}

// offlineQR builds a QRService that needs no server.
func offlineQR(c *cli.Context, flags *GlobalFlags) *service.QRService {
	base := flags.BaseURL
	if c.IsSet("base-url") {
		base = c.String("base-url")
	}

	var clock func() time.Time
	if ms := c.Int64("issued-at"); ms > 0 {
		at := time.UnixMilli(ms)
		clock = func() time.Time { return at }
	}

	codec := qrtoken.New(qrtoken.WithClock(clock), qrtoken.WithMaxAge(c.Duration("max-age")))
	return service.NewQRService(codec, &service.QRServiceConfig{BaseURL: base, Clock: clock})
}

func issuedToView(code *service.IssuedCode, maxAge time.Duration) tokenView {
	v := tokenView{
		PatientID: code.PatientID,
		Shape:     code.Shape,
		Token:     code.Token,
		ScanURL:   code.ScanURL,
		IssuedAt:  timePtr(code.IssuedAt),
	}
	if v.IssuedAt != nil {
		v.ExpiresAt = timePtr(code.IssuedAt.Add(maxAge))
	}
	return v
}

func tokenEncode(c *cli.Context) error {
	id, err := requireArg(c, "PATIENT_ID")
	if err != nil {
		return err
	}
	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return err
	}

	qr := offlineQR(c, flags)
	code, err := qr.Issue(c.Context, id, c.Bool("minimal"))
	if err != nil {
		return err
	}
	return render(c, flags, issuedToView(code, qr.MaxAge()))
}

func tokenVerify(c *cli.Context) error {
	arg, err := requireArg(c, "TOKEN")
	if err != nil {
		return err
	}
	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return err
	}

	res := offlineQR(c, flags).Verify(c.Context, codeFromArg(arg))
	if err := render(c, flags, resultToView(res)); err != nil {
		return err
	}
	if !res.Valid {
		return fmt.Errorf("token rejected: %s", res.Reason)
	}
	return nil
}

func tokenInspect(c *cli.Context) error {
	arg, err := requireArg(c, "TOKEN")
	if err != nil {
		return err
	}
	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return err
	}

	ref, err := offlineQR(c, flags).Inspect(codeFromArg(arg))
	if err != nil {
		return err
	}
	return render(c, flags, referenceToView(ref))
}

func tokenQR(c *cli.Context) error {
	id, err := requireArg(c, "PATIENT_ID")
	if err != nil {
		return err
	}
	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return err
	}

	qr := offlineQR(c, flags)
	code, png, err := qr.IssuePNG(c.Context, id, c.Bool("minimal"), c.Int("size"))
	if err != nil {
		return err
	}

	path := c.String("out")
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	v := issuedToView(code, qr.MaxAge())
	v.File = path
	return render(c, flags, v)
}

// codeFromArg accepts a bare token or a full scan link and returns the
// token in wire form. The query is split by hand so that '+' and
// percent escapes reach the verifier untouched.
func codeFromArg(arg string) string {
	if !strings.Contains(arg, "://") {
		return arg
	}
	u, err := url.Parse(arg)
	if err != nil {
		return arg
	}
	for _, pair := range strings.Split(u.RawQuery, "&") {
		if k, v, ok := strings.Cut(pair, "="); ok && k == "code" {
			return v
		}
	}
	return ""
}

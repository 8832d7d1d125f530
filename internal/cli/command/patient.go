package command

import (
	"fmt"
	"net/url"
	"os"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/Saiguru2554/Health-Link-Qr/internal/cli/connection"
	"github.com/Saiguru2554/Health-Link-Qr/internal/core/domain"
	"github.com/Saiguru2554/Health-Link-Qr/internal/server/httpserver/handler"
)

// PatientCommand returns the patient subcommand group.
func PatientCommand() *cli.Command {
	return &cli.Command{
		Name:    "patient",
		Aliases: []string{"pat"},
		Usage:   "Manage patients on a healthqr-server",
		Subcommands: []*cli.Command{
			{
				Name:  "register",
				Usage: "Register a patient",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:  "id",
						Usage: "Patient ID (generated when omitted)",
					},
					&cli.StringFlag{
						Name:     "name",
						Aliases:  []string{"n"},
						Usage:    "Full name",
						Required: true,
					},
				}, profileFlags()...),
				Action: patientRegister,
			},
			{
				Name:      "get",
				Usage:     "Show a patient",
				ArgsUsage: "PATIENT_ID",
				Action:    patientGet,
			},
			{
				Name:   "list",
				Usage:  "List patients",
				Action: patientList,
			},
			{
				Name:      "update",
				Usage:     "Update the fields given as flags",
				ArgsUsage: "PATIENT_ID",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:    "name",
						Aliases: []string{"n"},
						Usage:   "Full name",
					},
				}, profileFlags()...),
				Action: patientUpdate,
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete a patient",
				ArgsUsage: "PATIENT_ID",
				Action:    patientDelete,
			},
			{
				Name:      "report",
				Usage:     "Append a medical report",
				ArgsUsage: "PATIENT_ID",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "date", Usage: "Visit date (YYYY-MM-DD, default today)"},
					&cli.StringFlag{Name: "doctor", Usage: "Doctor name"},
					&cli.StringFlag{Name: "diagnosis", Usage: "Diagnosis"},
					&cli.StringFlag{Name: "treatment", Usage: "Treatment"},
					&cli.StringFlag{Name: "follow-up", Usage: "Follow-up instructions"},
					&cli.StringFlag{Name: "notes", Usage: "Free-form notes"},
				},
				Action: patientReport,
			},
			{
				Name:      "qr",
				Usage:     "Download a patient's QR code as PNG",
				ArgsUsage: "PATIENT_ID",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "out",
						Aliases:  []string{"f"},
						Usage:    "PNG file to write",
						Required: true,
					},
					&cli.IntFlag{Name: "size", Usage: "Image size in pixels"},
					&cli.BoolFlag{Name: "minimal", Usage: "Issue the minimal shape"},
				},
				Action: patientQR,
			},
		},
	}
}

// profileFlags are the optional profile fields shared by register and update.
func profileFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "email", Usage: "Email address"},
		&cli.StringFlag{Name: "phone", Usage: "Phone number"},
		&cli.StringFlag{Name: "blood-group", Usage: "Blood group, e.g. O+"},
		&cli.StringFlag{Name: "gender", Usage: "Gender"},
		&cli.StringFlag{Name: "address", Usage: "Postal address"},
		&cli.StringFlag{Name: "photo", Usage: "Photo reference"},
		&cli.StringFlag{Name: "emergency-name", Usage: "Emergency contact name"},
		&cli.StringFlag{Name: "emergency-relation", Usage: "Emergency contact relation"},
		&cli.StringFlag{Name: "emergency-phone", Usage: "Emergency contact phone"},
	}
}

func patientPath(id string) string {
	return "/patients/" + url.PathEscape(id)
}

func patientRegister(c *cli.Context) error {
	client, flags, err := newClient(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c, flags)
	defer cancel()

	req := handler.RegisterPatientRequest{
		ID:         c.String("id"),
		Name:       c.String("name"),
		Email:      c.String("email"),
		Phone:      c.String("phone"),
		BloodGroup: c.String("blood-group"),
		Gender:     c.String("gender"),
		Address:    c.String("address"),
		Photo:      c.String("photo"),
		EmergencyContact: domain.EmergencyContact{
			Name:     c.String("emergency-name"),
			Relation: c.String("emergency-relation"),
			Phone:    c.String("emergency-phone"),
		},
	}

	resp, err := client.Post(ctx, "/patients", req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	var p handler.PatientResponse
	if err := connection.ParseResponse(resp, &p); err != nil {
		return err
	}
	return render(c, flags, patientToView(&p))
}

func patientGet(c *cli.Context) error {
	id, err := requireArg(c, "PATIENT_ID")
	if err != nil {
		return err
	}
	client, flags, err := newClient(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c, flags)
	defer cancel()

	resp, err := client.Get(ctx, patientPath(id))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	var p handler.PatientResponse
	if err := connection.ParseResponse(resp, &p); err != nil {
		return err
	}
	return render(c, flags, patientToView(&p))
}

func patientList(c *cli.Context) error {
	client, flags, err := newClient(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c, flags)
	defer cancel()

	resp, err := client.Get(ctx, "/patients")
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	var list handler.ListPatientsResponse
	if err := connection.ParseResponse(resp, &list); err != nil {
		return err
	}

	views := make([]patientView, 0, len(list.Items))
	for i := range list.Items {
		views = append(views, patientToView(&list.Items[i]))
	}
	return render(c, flags, views)
}

func patientUpdate(c *cli.Context) error {
	id, err := requireArg(c, "PATIENT_ID")
	if err != nil {
		return err
	}
	client, flags, err := newClient(c)
	if err != nil {
		return err
	}

	var req handler.UpdatePatientRequest
	fields := map[string]**string{
		"name":        &req.Name,
		"email":       &req.Email,
		"phone":       &req.Phone,
		"blood-group": &req.BloodGroup,
		"gender":      &req.Gender,
		"address":     &req.Address,
		"photo":       &req.Photo,
	}
	changed := false
	for flag, dst := range fields {
		if c.IsSet(flag) {
			v := c.String(flag)
			*dst = &v
			changed = true
		}
	}
	if c.IsSet("emergency-name") || c.IsSet("emergency-relation") || c.IsSet("emergency-phone") {
		req.EmergencyContact = &domain.EmergencyContact{
			Name:     c.String("emergency-name"),
			Relation: c.String("emergency-relation"),
			Phone:    c.String("emergency-phone"),
		}
		changed = true
	}
	if !changed {
		return fmt.Errorf("nothing to update: pass at least one field flag")
	}

	ctx, cancel := requestContext(c, flags)
	defer cancel()

	resp, err := client.Patch(ctx, patientPath(id), req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	var p handler.PatientResponse
	if err := connection.ParseResponse(resp, &p); err != nil {
		return err
	}
	return render(c, flags, patientToView(&p))
}

func patientDelete(c *cli.Context) error {
	id, err := requireArg(c, "PATIENT_ID")
	if err != nil {
		return err
	}
	client, flags, err := newClient(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c, flags)
	defer cancel()

	resp, err := client.Delete(ctx, patientPath(id))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	if err := connection.ParseResponse(resp, nil); err != nil {
		return err
	}
	_, err = fmt.Fprintf(c.App.Writer, "Patient %s deleted\n", id)
	return err
}

func patientReport(c *cli.Context) error {
	id, err := requireArg(c, "PATIENT_ID")
	if err != nil {
		return err
	}
	client, flags, err := newClient(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c, flags)
	defer cancel()

	req := handler.AddReportRequest{
		Date:       c.String("date"),
		DoctorName: c.String("doctor"),
		Diagnosis:  c.String("diagnosis"),
		Treatment:  c.String("treatment"),
		FollowUp:   c.String("follow-up"),
		Notes:      c.String("notes"),
	}
	resp, err := client.Post(ctx, patientPath(id)+"/reports", req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	var r domain.MedicalReport
	if err := connection.ParseResponse(resp, &r); err != nil {
		return err
	}
	return render(c, flags, reportToView(r))
}

func patientQR(c *cli.Context) error {
	id, err := requireArg(c, "PATIENT_ID")
	if err != nil {
		return err
	}
	client, flags, err := newClient(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c, flags)
	defer cancel()

	query := url.Values{}
	if size := c.Int("size"); size > 0 {
		query.Set("size", strconv.Itoa(size))
	}
	if c.Bool("minimal") {
		query.Set("minimal", "true")
	}
	path := patientPath(id) + "/qr.png"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	resp, err := client.Get(ctx, path)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	png, err := connection.ReadBody(resp)
	if err != nil {
		return err
	}

	out := c.String("out")
	if err := os.WriteFile(out, png, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	_, err = fmt.Fprintf(c.App.Writer, "Wrote %d bytes to %s\n", len(png), out)
	return err
}

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/noah-isme/idcard-api/internal/models"
	"github.com/noah-isme/idcard-api/internal/records"
	"github.com/noah-isme/idcard-api/internal/service"
	appErrors "github.com/noah-isme/idcard-api/pkg/errors"
)

type loginOptions struct {
	username      string
	passwordStdin bool
	outDir        string
	theme         string
	pdf           bool
	timeout       time.Duration
}

func newLoginCmd(root *rootFlags) *cobra.Command {
	opts := &loginOptions{}

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and write student_front.png and student_back.png",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, root, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.username, "username", "u", "", "School username")
	cmd.Flags().BoolVar(&opts.passwordStdin, "password-stdin", false, "Read the password from stdin")
	cmd.Flags().StringVarP(&opts.outDir, "out", "o", ".", "Directory for the exported files")
	cmd.Flags().StringVar(&opts.theme, "theme", service.DefaultThemeName, "Theme preset")
	cmd.Flags().BoolVar(&opts.pdf, "pdf", false, "Also write student_card.pdf")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 15*time.Second, "Timeout for each records API call")
	_ = cmd.MarkFlagRequired("username")

	return cmd
}

func runLogin(cmd *cobra.Command, root *rootFlags, opts *loginOptions) error {
	password, err := readPassword(cmd, opts.passwordStdin)
	if err != nil {
		return err
	}

	log := root.logger()
	defer log.Sync() //nolint:errcheck

	themes := service.NewThemeService()
	var custom *models.ColorScheme
	if root.schemePath != "" {
		scheme, err := loadScheme(root.schemePath, themes)
		if err != nil {
			return err
		}
		custom = &scheme
	}

	store := service.NewStateStore(time.Hour, nil, log)
	avatars := service.NewAvatarService(store, nil, 1, nil, log)
	sessions := service.NewSessionService(records.New(root.recordsURL, opts.timeout, nil), nil, nil, nil, log)
	auth := service.NewAuthService(sessions, store, themes, avatars, nil, log, service.AuthConfig{
		TokenSecret: "idcard-cli",
		Issuer:      "idcard-cli",
	})
	cards := service.NewCardService(store, themes, avatars, nil, nil, nil, log, service.CardConfig{})

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	res, err := auth.Login(ctx, models.Credentials{Username: opts.username, Password: password})
	if err != nil {
		return userError(err)
	}
	claims, err := auth.ValidateToken(res.Token)
	if err != nil {
		return userError(err)
	}
	sessionID := claims.SessionID
	defer auth.Logout(sessionID) //nolint:errcheck

	if custom != nil {
		if _, err := cards.SetScheme(sessionID, *custom); err != nil {
			return userError(err)
		}
	} else if _, ok, err := cards.ApplyTheme(sessionID, opts.theme); err != nil {
		return userError(err)
	} else if !ok {
		fmt.Fprintf(cmd.ErrOrStderr(), "unknown theme %q, keeping %s\n", opts.theme, service.DefaultThemeName)
	}

	if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	out := cmd.OutOrStdout()
	rec := res.Record
	fmt.Fprintf(out, "%s (%s)\n", rec.Name, rec.MatriculationID)
	fmt.Fprintf(out, "%s, %s, level %s\n", rec.Department, rec.Faculty, rec.Level)
	if rec.CGPA.Synthetic() {
		fmt.Fprintf(out, "CGPA %.2f (estimated, the records API returned no result)\n", rec.CGPA.Value)
	} else {
		fmt.Fprintf(out, "CGPA %.2f\n", rec.CGPA.Value)
	}

	for _, face := range []models.Face{models.FaceFront, models.FaceBack} {
		file, err := cards.ExportFace(ctx, sessionID, face)
		if err != nil {
			return userError(err)
		}
		if err := writeExport(out, opts.outDir, file); err != nil {
			return err
		}
	}
	if opts.pdf {
		file, err := cards.ExportPDF(ctx, sessionID)
		if err != nil {
			return userError(err)
		}
		if err := writeExport(out, opts.outDir, file); err != nil {
			return err
		}
	}
	return nil
}

func writeExport(out io.Writer, dir string, file *service.ExportedFile) error {
	path := filepath.Join(dir, file.Filename)
	if err := os.WriteFile(path, file.Data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", file.Filename, err)
	}
	fmt.Fprintf(out, "wrote %s\n", path)
	return nil
}

func readPassword(cmd *cobra.Command, fromStdin bool) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && !fromStdin && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		raw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(raw), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", errors.New("password is required")
	}
	return password, nil
}

// userError keeps only the message meant for the card holder.
func userError(err error) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return errors.New(appErr.Message)
	}
	return err
}

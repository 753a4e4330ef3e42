package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/trekkers/tour-client/internal/core/domain"
)

// withApp wires a client for the duration of fn. When resolve is set the
// stored credential is checked with the service first.
func (o *options) withApp(cmd *cobra.Command, resolve bool, fn func(ctx context.Context, a *app, p printer) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := o.newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if resolve {
		if err := a.bootstrap(ctx); err != nil {
			return err
		}
	}
	return fn(ctx, a, newPrinter(cmd.OutOrStdout(), o.jsonOutput))
}

// readSecret returns value, or the first line of in when value is empty.
func readSecret(in io.Reader, value, name string) (string, error) {
	if value != "" {
		return value, nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", fmt.Errorf("%s is required: pass --%s or write it to stdin", name, name)
	}
	return line, nil
}

func printSession(a *app, p printer) error {
	s := a.session.Current()
	return p.emit(viewSession(s), formatSessionHuman(p.style, s))
}

func newLoginCmd(o *options) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the credential",
		Long:  `Sign in with email and password. The password is read from stdin when --password is not given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := readSecret(cmd.InOrStdin(), password, "password")
			if err != nil {
				return err
			}
			return o.withApp(cmd, false, func(ctx context.Context, a *app, p printer) error {
				if err := a.session.Login(ctx, email, pw); err != nil {
					return err
				}
				return printSession(a, p)
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newSignupCmd(o *options) *cobra.Command {
	var in domain.SignupInput
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := readSecret(cmd.InOrStdin(), in.Password, "password")
			if err != nil {
				return err
			}
			in.Password = pw
			if in.PasswordConfirm == "" {
				in.PasswordConfirm = pw
			}
			return o.withApp(cmd, false, func(ctx context.Context, a *app, p printer) error {
				if err := a.session.Signup(ctx, in); err != nil {
					return err
				}
				return printSession(a, p)
			})
		},
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "Display name")
	cmd.Flags().StringVar(&in.Email, "email", "", "Account email")
	cmd.Flags().StringVar(&in.Password, "password", "", "Account password")
	cmd.Flags().StringVar(&in.PasswordConfirm, "password-confirm", "", "Password confirmation (defaults to --password)")
	return cmd
}

func newLogoutCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withApp(cmd, false, func(ctx context.Context, a *app, p printer) error {
				if err := a.session.Logout(ctx); err != nil {
					return err
				}
				return printSession(a, p)
			})
		},
	}
}

func newWhoamiCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withApp(cmd, true, func(ctx context.Context, a *app, p printer) error {
				return printSession(a, p)
			})
		},
	}
}

func newUpdateMeCmd(o *options) *cobra.Command {
	var in domain.ProfileInput
	cmd := &cobra.Command{
		Use:   "update-me",
		Short: "Change name, email or photo",
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withApp(cmd, true, func(ctx context.Context, a *app, p printer) error {
				if err := a.session.UpdateProfile(ctx, in); err != nil {
					return err
				}
				return printSession(a, p)
			})
		},
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "New display name")
	cmd.Flags().StringVar(&in.Email, "email", "", "New email")
	cmd.Flags().StringVar(&in.Photo, "photo", "", "New photo file name")
	return cmd
}

func newPasswordCmd(o *options) *cobra.Command {
	var in domain.PasswordInput
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Change the password and rotate the credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			if in.PasswordConfirm == "" {
				in.PasswordConfirm = in.Password
			}
			return o.withApp(cmd, true, func(ctx context.Context, a *app, p printer) error {
				if err := a.session.ChangePassword(ctx, in); err != nil {
					return err
				}
				return printSession(a, p)
			})
		},
	}
	cmd.Flags().StringVar(&in.PasswordCurrent, "current", "", "Current password")
	cmd.Flags().StringVar(&in.Password, "new", "", "New password")
	cmd.Flags().StringVar(&in.PasswordConfirm, "confirm", "", "New password confirmation (defaults to --new)")
	_ = cmd.MarkFlagRequired("current")
	_ = cmd.MarkFlagRequired("new")
	return cmd
}

func newForgotPasswordCmd(o *options) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "forgot-password",
		Short: "Ask the service to send a password reset token",
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withApp(cmd, false, func(ctx context.Context, a *app, p printer) error {
				if err := a.session.ForgotPassword(ctx, email); err != nil {
					return err
				}
				return p.emit(map[string]string{"status": "sent", "email": email}, "Reset token sent to "+email+".")
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newResetPasswordCmd(o *options) *cobra.Command {
	var in domain.PasswordResetInput
	cmd := &cobra.Command{
		Use:   "reset-password <reset-token>",
		Short: "Set a new password with a reset token and sign in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := readSecret(cmd.InOrStdin(), in.Password, "password")
			if err != nil {
				return err
			}
			in.Password = pw
			if in.PasswordConfirm == "" {
				in.PasswordConfirm = pw
			}
			return o.withApp(cmd, false, func(ctx context.Context, a *app, p printer) error {
				if err := a.session.ResetPassword(ctx, args[0], in); err != nil {
					return err
				}
				return printSession(a, p)
			})
		},
	}
	cmd.Flags().StringVar(&in.Password, "password", "", "New password")
	cmd.Flags().StringVar(&in.PasswordConfirm, "password-confirm", "", "New password confirmation (defaults to --password)")
	return cmd
}

func newDeleteMeCmd(o *options) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete-me",
		Short: "Deactivate the signed-in account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to delete the account without --yes")
			}
			return o.withApp(cmd, true, func(ctx context.Context, a *app, p printer) error {
				if err := a.session.DeleteAccount(ctx); err != nil {
					return err
				}
				return printSession(a, p)
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the deletion")
	return cmd
}

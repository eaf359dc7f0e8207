package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spec-kit/rental-portal/internal/backend"
	"github.com/spec-kit/rental-portal/internal/domain"
	"github.com/spec-kit/rental-portal/internal/events"
)

func LoginCmd(env *Env) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and keep the session for later commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if password == "" {
				fmt.Fprint(env.Out, "Password: ")
				line, err := readLine(ctx, env.Lines())
				if err != nil {
					return fmt.Errorf("read password: %w", err)
				}
				password = line
			}

			result, err := env.Client.SignIn(ctx, backend.Credentials{Email: email, Password: password})
			if err != nil {
				return err
			}
			if err := env.Sessions.SignOut(ctx, SessionID, events.ReasonLogout); err != nil {
				return err
			}
			sess, err := env.Sessions.SignIn(ctx, SessionID, result.User, result.AccessToken)
			if err != nil {
				return err
			}

			fmt.Fprintf(env.Out, "Signed in as %s (%s) until %s\n", sess.User.Email, sess.User.Type, sess.ExpiresAt.Local().Format("2006-01-02 15:04"))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password, read from stdin when omitted")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func SignUpCmd(env *Env) *cobra.Command {
	var form backend.SignUpForm
	var userType string
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account; sign in with login afterwards",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if form.Password == "" {
				fmt.Fprint(env.Out, "Password: ")
				line, err := readLine(ctx, env.Lines())
				if err != nil {
					return fmt.Errorf("read password: %w", err)
				}
				form.Password = line
			}
			form.Type = domain.UserType(userType)

			user, err := env.Client.SignUp(ctx, form)
			if err != nil {
				return err
			}
			fmt.Fprintf(env.Out, "Created account #%d for %s (%s)\n", user.ID, user.Email, user.Type)
			return nil
		},
	}
	cmd.Flags().StringVar(&form.FullName, "name", "", "full name")
	cmd.Flags().StringVar(&form.CPF, "cpf", "", "CPF, masked or 11 digits")
	cmd.Flags().StringVar(&form.Email, "email", "", "account email")
	cmd.Flags().StringVar(&form.Phone, "phone", "", "phone, masked or 10 to 11 digits")
	cmd.Flags().StringVar(&userType, "type", "", "LANDLORD or TENANT")
	cmd.Flags().StringVar(&form.Password, "password", "", "account password, read from stdin when omitted")
	for _, name := range []string{"name", "cpf", "email", "phone", "type"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func LogoutCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := env.Sessions.SignOut(cmd.Context(), SessionID, events.ReasonLogout); err != nil {
				return err
			}
			fmt.Fprintln(env.Out, "Signed out.")
			return nil
		},
	}
}

func WhoAmICmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := env.CurrentUser(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(env.Out, "#%d %s <%s> %s\n", user.ID, user.FullName(), user.Email, user.Type.Normalize())
			return nil
		},
	}
}

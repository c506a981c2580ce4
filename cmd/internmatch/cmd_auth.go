package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/khoahotran/internmatch-client/internal/application/service"
	authUC "github.com/khoahotran/internmatch-client/internal/application/usecase/auth"
	profileUC "github.com/khoahotran/internmatch-client/internal/application/usecase/profile"
	"github.com/khoahotran/internmatch-client/internal/domain/session"
)

// passwordEnv lets scripts pass secrets without putting them on the command line.
const passwordEnv = "INTERNMATCH_PASSWORD"

var (
	loginEmail    string
	loginPassword string
	googleIDToken string

	registration service.Registration

	passwordChange service.PasswordChange

	loginCmd = &cobra.Command{
		Use:   "login",
		Short: "Log in with email and password",
		RunE: func(cmd *cobra.Command, args []string) error {
			if loginPassword == "" {
				loginPassword = os.Getenv(passwordEnv)
			}
			out, err := current.authUC.ExecuteLogin(cmd.Context(), authUC.LoginInput{
				Email:    loginEmail,
				Password: loginPassword,
			})
			if err != nil {
				return err
			}
			printLanding(cmd, out)
			return nil
		},
	}

	googleLoginCmd = &cobra.Command{
		Use:   "google-login",
		Short: "Log in with a Google identity token",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := current.authUC.ExecuteGoogleLogin(cmd.Context(), authUC.GoogleLoginInput{IDToken: googleIDToken})
			if err != nil {
				return err
			}
			printLanding(cmd, out)
			return nil
		},
	}

	registerCmd = &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if registration.Password == "" {
				registration.Password = os.Getenv(passwordEnv)
			}
			out, err := current.authUC.ExecuteRegister(cmd.Context(), registration)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out.Message)
			return nil
		},
	}

	passwdCmd = &cobra.Command{
		Use:   "passwd",
		Short: "Change the password of the logged in account",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := current.session(cmd.Context())
			if err != nil {
				return err
			}
			if err := current.authUC.ExecuteChangePassword(cmd.Context(), authUC.ChangePasswordInput{
				Session: s,
				Change:  passwordChange,
			}); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Password changed.")
			return nil
		},
	}

	logoutCmd = &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			dest, err := current.authUC.ExecuteLogout(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged out. Next: %s\n", dest)
			return nil
		},
	}

	homeCmd = &cobra.Command{
		Use:   "home",
		Short: "Show where the stored session lands",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := current.session(cmd.Context())
			if err != nil {
				return err
			}
			dest := s.Home()
			if dest == session.DestinationStudentHome {
				home, err := current.profileUC.ExecuteResolveHome(cmd.Context(), profileUC.ResolveHomeInput{Session: s})
				if err != nil {
					return err
				}
				dest = home.Destination
			}
			fmt.Fprintln(cmd.OutOrStdout(), dest)
			return nil
		},
	}
)

func printLanding(cmd *cobra.Command, out *authUC.LoginOutput) {
	w := cmd.OutOrStdout()
	if name := out.Session.DisplayName(); name != "" {
		fmt.Fprintf(w, "Welcome, %s.\n", name)
	}
	role := "none"
	if r := out.Session.Role(); r != nil {
		role = *r
	}
	fmt.Fprintf(w, "Logged in as %s (role %s). Next: %s\n", out.Session.Subject(), role, out.Destination)
}

func init() {
	loginCmd.Flags().StringVarP(&loginEmail, "email", "e", "", "account email")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "account password (or "+passwordEnv+")")
	_ = loginCmd.MarkFlagRequired("email")

	googleLoginCmd.Flags().StringVar(&googleIDToken, "id-token", "", "Google identity token")
	_ = googleLoginCmd.MarkFlagRequired("id-token")

	registerCmd.Flags().StringVarP(&registration.Email, "email", "e", "", "account email")
	registerCmd.Flags().StringVarP(&registration.Password, "password", "p", "", "account password (or "+passwordEnv+")")
	registerCmd.Flags().StringVar(&registration.FirstName, "first-name", "", "first name")
	registerCmd.Flags().StringVar(&registration.LastName, "last-name", "", "last name")
	registerCmd.Flags().StringVar(&registration.Role, "role", "USER", "USER or ADMIN")

	passwdCmd.Flags().StringVar(&passwordChange.CurrentPassword, "current", "", "current password")
	passwdCmd.Flags().StringVar(&passwordChange.NewPassword, "new", "", "new password")
	passwdCmd.Flags().StringVar(&passwordChange.ConfirmationPassword, "confirm", "", "new password again")
}

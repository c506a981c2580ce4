package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	profileUC "github.com/khoahotran/internmatch-client/internal/application/usecase/profile"
	"github.com/khoahotran/internmatch-client/internal/domain/asset"
	"github.com/khoahotran/internmatch-client/internal/domain/profile"
)

var (
	applyFile   string
	applyDryRun bool
	deleteYes   bool

	profileCmd = &cobra.Command{
		Use:   "profile",
		Short: "View and edit the student profile",
	}

	profileShowCmd = &cobra.Command{
		Use:   "show",
		Short: "Print the stored profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := current.session(cmd.Context())
			if err != nil {
				return err
			}
			out, err := current.profileUC.ExecuteViewProfile(cmd.Context(), profileUC.ViewProfileInput{Session: s})
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if err := printProfile(w, out.Profile); err != nil {
				return err
			}
			printAsset(w, out.Picture)
			printAsset(w, out.Cover)
			return nil
		},
	}

	profileApplyCmd = &cobra.Command{
		Use:   "apply",
		Short: "Apply a YAML edit script to the profile and submit it",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			script, err := loadEditScript(applyFile)
			if err != nil {
				return err
			}
			s, err := current.session(ctx)
			if err != nil {
				return err
			}

			ed := current.profileUC.NewEditor()
			defer ed.Leave(ctx)
			loaded, err := current.profileUC.ExecuteLoadProfile(ctx, profileUC.LoadProfileInput{Session: s, Editor: ed})
			if err != nil {
				return err
			}
			if loaded.Discarded {
				return errors.New("profile load was interrupted")
			}

			report, err := script.apply(ctx, ed, filepath.Dir(applyFile))
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, miss := range report.Unmatched {
				fmt.Fprintf(w, "skipped: %s matched no record\n", miss)
			}

			if applyDryRun {
				return printProfile(w, ed.Snapshot())
			}

			out, err := current.profileUC.ExecuteSubmitProfile(ctx, profileUC.SubmitProfileInput{Session: s, Editor: ed})
			if err != nil {
				return err
			}
			verb := "Updated"
			if out.Created {
				verb = "Created"
			}
			fmt.Fprintf(w, "%s profile %s", verb, out.Profile.ID)
			if len(out.Submitted) > 0 {
				fmt.Fprintf(w, " with %v", out.Submitted)
			}
			fmt.Fprintln(w)
			return nil
		},
	}

	profileDeleteCmd = &cobra.Command{
		Use:   "delete",
		Short: "Delete the profile and log out",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !deleteYes {
				return errors.New("refusing to delete without --yes")
			}
			ctx := cmd.Context()
			s, err := current.session(ctx)
			if err != nil {
				return err
			}

			ed := current.profileUC.NewEditor()
			defer ed.Leave(ctx)
			if _, err := current.profileUC.ExecuteLoadProfile(ctx, profileUC.LoadProfileInput{Session: s, Editor: ed}); err != nil {
				return err
			}
			out, err := current.profileUC.ExecuteDeleteProfile(ctx, profileUC.DeleteProfileInput{Session: s, Editor: ed})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Profile deleted. Next: %s\n", out.Destination)
			return nil
		},
	}
)

func printProfile(w io.Writer, p *profile.Profile) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(p)
}

func printAsset(w io.Writer, v asset.View) {
	switch {
	case v.IsDefault:
		fmt.Fprintf(w, "%s: default (%s)\n", v.Slot, v.Ref)
	case v.Payload != nil:
		fmt.Fprintf(w, "%s: %s, %d bytes\n", v.Slot, v.Payload.ContentType, v.Payload.Size())
	default:
		fmt.Fprintf(w, "%s: %s\n", v.Slot, v.Ref)
	}
}

func init() {
	profileApplyCmd.Flags().StringVarP(&applyFile, "file", "f", "", "YAML edit script")
	profileApplyCmd.Flags().BoolVar(&applyDryRun, "dry-run", false, "print the edited profile instead of submitting it")
	_ = profileApplyCmd.MarkFlagRequired("file")

	profileDeleteCmd.Flags().BoolVar(&deleteYes, "yes", false, "confirm deletion")

	profileCmd.AddCommand(profileShowCmd, profileApplyCmd, profileDeleteCmd)
}

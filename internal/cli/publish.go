package cli

import (
	"errors"
	"fmt"
	"net/url"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/catattack05/functionary/internal/domain"
)

func newPublishCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "publish [PATH]",
		Short: "Archive a package and publish it to the build server",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env := v.GetString("environment")
			if env == "" {
				return errors.New("no environment selected: set --environment or FUNCTIONARY_ENVIRONMENT")
			}
			c, err := newClient(v)
			if err != nil {
				return err
			}
			contents, m, err := packPackage(packageDir(args))
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Publishing %s to %s\n", m.Package.Name, c.host)
			build, err := c.publish(env, m.Package.Name+".tar.gz", contents)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Publish %s succeeded\n", build.ID)
			return nil
		},
	}
}

func newBuildsCmd(v *viper.Viper) *cobra.Command {
	var id string
	var showLog bool
	cmd := &cobra.Command{
		Use:   "builds",
		Short: "Show build status for the environment, or a single build",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(v)
			if err != nil {
				return err
			}
			if id == "" {
				var builds []*domain.Build
				endpoint := "/api/v1/builds"
				if env := v.GetString("environment"); env != "" {
					endpoint += "?environment=" + url.QueryEscape(env)
				}
				if err := c.get(endpoint, &builds); err != nil {
					return err
				}
				printBuilds(cmd, builds)
				return nil
			}

			var build domain.Build
			if err := c.get("/api/v1/builds/"+url.PathEscape(id), &build); err != nil {
				return err
			}
			printBuilds(cmd, []*domain.Build{&build})
			if !showLog {
				return nil
			}
			var log struct {
				Log string `json:"log"`
			}
			if err := c.get("/api/v1/builds/"+url.PathEscape(id)+"/log", &log); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout())
			fmt.Fprintln(cmd.OutOrStdout(), log.Log)
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "show a single build")
	cmd.Flags().BoolVar(&showLog, "log", false, "print the build log (with --id)")
	return cmd
}

func printBuilds(cmd *cobra.Command, builds []*domain.Build) {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tENVIRONMENT\tCREATOR\tCREATED")
	for _, b := range builds {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", b.ID, b.Status, b.EnvironmentID, b.Creator, b.CreatedAt.Format(time.RFC3339))
	}
	_ = tw.Flush()
}

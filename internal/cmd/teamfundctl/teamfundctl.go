// Package teamfundctl implements the TeamFund command-line client.
package teamfundctl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	platformcmd "github.com/louisbranch/teamfund/internal/platform/cmd"
	"github.com/louisbranch/teamfund/internal/services/teamfund/client"
	"github.com/louisbranch/teamfund/internal/services/teamfund/domain"
	"github.com/louisbranch/teamfund/internal/services/teamfund/session"
)

// Config holds CLI defaults read from the environment.
type Config struct {
	ServerURL     string `env:"TEAMFUND_SERVER_URL" envDefault:"http://localhost:8080"`
	Token         string `env:"TEAMFUND_TOKEN"`
	SessionSecret string `env:"TEAMFUND_SESSION_SECRET"`
}

// NewRootCommand builds the command tree. Output goes to out.
func NewRootCommand(out io.Writer) (*cobra.Command, error) {
	var cfg Config
	if err := platformcmd.ParseConfig(&cfg); err != nil {
		return nil, err
	}
	root := &cobra.Command{
		Use:           "teamfundctl",
		Short:         "Manage a TeamFund sponsor pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "TeamFund API base URL")
	root.PersistentFlags().StringVar(&cfg.Token, "token", cfg.Token, "Session token")

	root.AddCommand(
		tokenCmd(&cfg),
		whoamiCmd(&cfg),
		teamCmd(&cfg),
		leadsCmd(&cfg),
		draftsCmd(&cfg),
		assetsCmd(&cfg),
	)
	return root, nil
}

// Execute runs the CLI with args.
func Execute(ctx context.Context, out io.Writer, args []string) error {
	root, err := NewRootCommand(out)
	if err != nil {
		return err
	}
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func workspace(ctx context.Context, cfg *Config) (*client.Workspace, error) {
	c, err := client.New(client.Config{BaseURL: cfg.ServerURL, Token: cfg.Token})
	if err != nil {
		return nil, err
	}
	ws := client.NewWorkspace(c)
	if err := ws.Load(ctx); err != nil {
		return nil, err
	}
	return ws, nil
}

func tokenCmd(cfg *Config) *cobra.Command {
	var user domain.User
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a session token with the server secret",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(cfg.SessionSecret) == "" {
				return errors.New("TEAMFUND_SESSION_SECRET is required")
			}
			verifier, err := session.NewVerifier(session.Config{Secret: []byte(cfg.SessionSecret)})
			if err != nil {
				return err
			}
			token, err := verifier.Sign(user, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&user.ID, "user-id", "", "User id")
	cmd.Flags().StringVar(&user.Email, "email", "", "User email")
	cmd.Flags().StringVar(&user.Name, "name", "", "Display name")
	cmd.Flags().DurationVar(&ttl, "ttl", 30*24*time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("user-id")
	return cmd
}

func whoamiCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user and team",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := workspace(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			snap := ws.Snapshot()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "user: %s <%s>\n", snap.User.Name, snap.User.Email)
			if snap.Team == nil {
				fmt.Fprintln(out, "team: not set up")
				return nil
			}
			fmt.Fprintf(out, "team: %s (%s, %s)\n", snap.Team.Name, snap.Team.Sport, snap.Team.Location)
			fmt.Fprintf(out, "leads: %d drafts: %d assets: %d\n", len(snap.Leads), len(snap.Drafts), len(snap.Assets))
			return nil
		},
	}
}

func teamCmd(cfg *Config) *cobra.Command {
	var team domain.Team
	cmd := &cobra.Command{
		Use:   "team",
		Short: "Create or update the team profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := workspace(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if current := ws.Snapshot().Team; current != nil {
				team = mergeTeam(*current, team, cmd)
			}
			saved, err := ws.SetTeam(cmd.Context(), team)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved team %s\n", saved.Name)
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&team.Name, "name", "", "Team name")
	flags.StringVar(&team.Sport, "sport", "", "Sport")
	flags.StringVar(&team.Location, "location", "", "City and state")
	flags.StringVar(&team.League, "league", "", "League")
	flags.StringVar(&team.Audience, "audience", "", "Audience description")
	flags.StringVar(&team.SponsorshipNeeds, "needs", "", "Sponsorship needs")
	flags.Float64Var(&team.TargetAmount, "target", 0, "Fundraising target in dollars")
	return cmd
}

// mergeTeam keeps current values for flags the user did not pass.
func mergeTeam(current, edit domain.Team, cmd *cobra.Command) domain.Team {
	flags := cmd.Flags()
	set := func(name string, dst *string, value string) {
		if flags.Changed(name) {
			*dst = value
		}
	}
	set("name", &current.Name, edit.Name)
	set("sport", &current.Sport, edit.Sport)
	set("location", &current.Location, edit.Location)
	set("league", &current.League, edit.League)
	set("audience", &current.Audience, edit.Audience)
	set("needs", &current.SponsorshipNeeds, edit.SponsorshipNeeds)
	if flags.Changed("target") {
		current.TargetAmount = edit.TargetAmount
	}
	return current
}

func leadsCmd(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{Use: "leads", Short: "Work with sponsor leads"}

	var filter string
	list := &cobra.Command{
		Use:   "list",
		Short: "List leads, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := client.New(client.Config{BaseURL: cfg.ServerURL, Token: cfg.Token})
			if err != nil {
				return err
			}
			leads, err := c.ListAllLeads(cmd.Context(), filter)
			if err != nil {
				return err
			}
			printLeads(cmd.OutOrStdout(), leads)
			return nil
		},
	}
	list.Flags().StringVar(&filter, "filter", "", `Filter expression, e.g. status = "approved"`)

	advance := &cobra.Command{
		Use:   "advance <lead-id>",
		Short: "Move a lead to its next status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := workspace(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			lead, ok := ws.Lead(args[0])
			if !ok {
				return fmt.Errorf("lead %s not found", args[0])
			}
			next, ok := lead.Status.Next()
			if !ok {
				return fmt.Errorf("lead %s is already %s", lead.ID, lead.Status)
			}
			if _, err := ws.UpdateLeadStatus(cmd.Context(), lead.ID, next); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s -> %s\n", lead.CompanyName, lead.Status, next)
			return nil
		},
	}

	status := &cobra.Command{
		Use:   "status <status> <lead-id>...",
		Short: "Set the status of one or more leads",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			next, err := domain.ParseLeadStatus(args[0])
			if err != nil {
				return err
			}
			ws, err := workspace(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			updated, err := ws.BulkUpdateLeadStatus(cmd.Context(), args[1:], next)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated %d leads\n", updated)
			return nil
		},
	}

	notes := &cobra.Command{
		Use:   "notes <lead-id> <text>",
		Short: "Replace a lead's notes",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := workspace(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			lead, err := ws.UpdateLeadNotes(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated notes for %s\n", lead.CompanyName)
			return nil
		},
	}

	remove := &cobra.Command{
		Use:   "delete <lead-id>...",
		Short: "Delete leads and their drafts",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := workspace(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			deleted, err := ws.DeleteLeads(cmd.Context(), args)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d leads\n", deleted)
			return nil
		},
	}

	cmd.AddCommand(list, advance, status, notes, remove, researchCmd(cfg), discoverCmd(cfg))
	return cmd
}

func researchCmd(cfg *Config) *cobra.Command {
	var sport, location string
	var save bool
	cmd := &cobra.Command{
		Use:   "research",
		Short: "Ask the research model for sponsor candidates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := client.New(client.Config{BaseURL: cfg.ServerURL, Token: cfg.Token})
			if err != nil {
				return err
			}
			drafts, err := c.ResearchLeads(cmd.Context(), sport, location)
			if err != nil {
				return err
			}
			return reportDrafts(cmd, cfg, drafts, save)
		},
	}
	cmd.Flags().StringVar(&sport, "sport", "", "Sport, defaults to the team's")
	cmd.Flags().StringVar(&location, "location", "", "Location, defaults to the team's")
	cmd.Flags().BoolVar(&save, "save", false, "Store the results as leads")
	return cmd
}

func discoverCmd(cfg *Config) *cobra.Command {
	var req client.DiscoverRequest
	var save bool
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Find businesses near a ZIP code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := client.New(client.Config{BaseURL: cfg.ServerURL, Token: cfg.Token})
			if err != nil {
				return err
			}
			drafts, err := c.DiscoverLeads(cmd.Context(), req)
			if err != nil {
				return err
			}
			return reportDrafts(cmd, cfg, drafts, save)
		},
	}
	cmd.Flags().StringVar(&req.ZipCode, "zip", "", "ZIP code")
	cmd.Flags().StringVar(&req.Audience, "audience", "", "Audience category")
	cmd.Flags().IntVar(&req.Limit, "limit", 20, "Maximum results")
	cmd.Flags().BoolVar(&save, "save", false, "Store the results as leads")
	_ = cmd.MarkFlagRequired("zip")
	_ = cmd.MarkFlagRequired("audience")
	return cmd
}

// reportDrafts prints drafts, or stores them as leads when save is set.
func reportDrafts(cmd *cobra.Command, cfg *Config, drafts []domain.LeadDraft, save bool) error {
	out := cmd.OutOrStdout()
	if !save {
		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "COMPANY\tCATEGORY\tLOCATION\tEMAIL")
		for _, d := range drafts {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.CompanyName, d.Category, d.Location, d.Email)
		}
		return w.Flush()
	}
	ws, err := workspace(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	leads, err := ws.AddLeads(cmd.Context(), drafts)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "saved %d leads\n", len(leads))
	return nil
}

func draftsCmd(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{Use: "drafts", Short: "Work with outreach drafts"}

	list := &cobra.Command{
		Use:   "list",
		Short: "List outreach drafts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := workspace(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tLEAD\tSTATUS\tSUBJECT")
			for _, d := range ws.Snapshot().Drafts {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.ID, d.LeadID, d.Status, d.EmailSubject)
			}
			return w.Flush()
		},
	}

	generate := &cobra.Command{
		Use:   "generate <lead-id>",
		Short: "Generate an outreach draft for a lead",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := workspace(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			draft, err := ws.GenerateDraft(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "draft %s\nSubject: %s\n\n%s\n", draft.ID, draft.EmailSubject, draft.EmailBody)
			return nil
		},
	}

	status := &cobra.Command{
		Use:   "status <draft-id> <status>",
		Short: "Set a draft's review status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			next, err := domain.ParseDraftStatus(args[1])
			if err != nil {
				return err
			}
			ws, err := workspace(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			draft, err := ws.UpdateDraftStatus(cmd.Context(), args[0], next)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "draft %s is %s\n", draft.ID, draft.Status)
			return nil
		},
	}

	cmd.AddCommand(list, generate, status)
	return cmd
}

func assetsCmd(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{Use: "assets", Short: "Work with team assets"}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List assets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := workspace(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTYPE\tNAME\tURL")
			for _, a := range ws.Snapshot().Assets {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", a.ID, a.Type, a.Name, a.URL)
			}
			return w.Flush()
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "delete <asset-id>",
		Short: "Delete an asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := workspace(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if err := ws.DeleteAsset(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted asset %s\n", args[0])
			return nil
		},
	})
	return cmd
}

func printLeads(out io.Writer, leads []domain.Lead) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCOMPANY\tSTATUS\tCATEGORY\tEMAIL")
	for _, l := range leads {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", l.ID, l.CompanyName, l.Status, l.Category, l.Email)
	}
	_ = w.Flush()
}

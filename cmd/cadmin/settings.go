package main

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/Veraticus/commerce-admin/internal/admin"
	"github.com/Veraticus/commerce-admin/internal/cli"
	"github.com/Veraticus/commerce-admin/internal/model"
	"github.com/spf13/cobra"
)

func settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: cli.SettingsIcon + " Manage the system configuration",
		Long:  `Show and change company, fiscal, business, technical and backup settings.`,
	}

	cmd.AddCommand(showSettingsCmd())
	cmd.AddCommand(getSettingsCmd())
	cmd.AddCommand(updateSettingsCmd())
	cmd.AddCommand(backupCmd())
	cmd.AddCommand(logoCmd())
	cmd.AddCommand(technicalCmd())

	return cmd
}

func newSettingsPage(a *app) *admin.SettingsPage {
	return admin.NewSettingsPage(a.client, a.notify, a.validator)
}

func showSettingsCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show every settings section",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			cfg, err := newSettingsPage(a).Load(commandContext(cmd))
			if err != nil {
				return reported(err)
			}
			return writeStructured(a.out, output, cfg)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputYAML, "output format (yaml, json)")

	return cmd
}

func getSettingsCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:       "get <section>",
		Short:     "Show one settings section",
		Args:      cobra.ExactArgs(1),
		ValidArgs: sectionNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			section := model.ConfigType(args[0])
			if !section.Valid() {
				return fmt.Errorf("unknown section %q (want %s)", args[0], strings.Join(sectionNames(), ", "))
			}
			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			res, err := a.client.GetSection(commandContext(cmd), section)
			if err != nil {
				return fmt.Errorf("failed to get %s settings: %w", section, err)
			}
			return writeStructured(a.out, output, res.Data)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputYAML, "output format (yaml, json)")

	return cmd
}

func sectionNames() []string {
	names := make([]string, len(model.ConfigTypes))
	for i, t := range model.ConfigTypes {
		names[i] = string(t)
	}
	return names
}

func updateSettingsCmd() *cobra.Command {
	var (
		sets []string
		logo string
	)

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Change settings and save them together",
		Long: `Load the current configuration, apply each --set section.field=value and save
every section at once. Numeric and boolean fields take JSON values; text
fields take the value as written. --logo uploads a JPEG or PNG after the save.

  cadmin settings update --set company.name="Comercial Andina" --set fiscal.ivaPercentage=12`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(sets) == 0 && logo == "" {
				return fmt.Errorf("must specify --set or --logo")
			}

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			page := newSettingsPage(a)
			ctx := commandContext(cmd)

			cfg, err := page.Load(ctx)
			if err != nil {
				return reported(err)
			}
			if cfg, err = applySettings(cfg, sets); err != nil {
				return err
			}
			if logo != "" {
				if err := page.SelectLogo(logo); err != nil {
					return reported(err)
				}
			}

			if err := page.SaveAll(ctx, cfg); err != nil {
				msgs := admin.ErrorMessages(err)
				for _, field := range slices.Sorted(maps.Keys(msgs)) {
					fmt.Fprintf(a.out, "  %s %s: %s\n", cli.ErrorIcon, field, msgs[field])
				}
				return reported(err)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&sets, "set", nil, "section.field=value to change (repeatable)")
	cmd.Flags().StringVar(&logo, "logo", "", "company logo to upload (JPEG or PNG, up to 2MB)")

	return cmd
}

// applySettings sets dotted JSON paths on cfg.
func applySettings(cfg model.SystemConfiguration, sets []string) (model.SystemConfiguration, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return cfg, err
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return cfg, err
	}

	for _, s := range sets {
		key, raw, ok := strings.Cut(s, "=")
		if !ok {
			return cfg, fmt.Errorf("invalid --set %q (want section.field=value)", s)
		}
		section, field, ok := strings.Cut(key, ".")
		if !ok || !model.ConfigType(section).Valid() {
			return cfg, fmt.Errorf("invalid setting %q (want one of %s followed by .field)", key, strings.Join(sectionNames(), ", "))
		}
		values, _ := doc[section].(map[string]any)
		current, known := values[field]
		if !known {
			return cfg, fmt.Errorf("unknown setting %q", key)
		}

		// Text fields keep the raw value so "0991234567" stays a string.
		var value any = raw
		switch current.(type) {
		case string, nil:
		default:
			if err := json.Unmarshal([]byte(raw), &value); err != nil {
				return cfg, fmt.Errorf("invalid value for %s: %q", key, raw)
			}
		}
		values[field] = value
	}

	data, err = json.Marshal(doc)
	if err != nil {
		return cfg, err
	}
	var out model.SystemConfiguration
	if err := json.Unmarshal(data, &out); err != nil {
		return cfg, fmt.Errorf("invalid setting value: %w", err)
	}
	return out, nil
}

func backupCmd() *cobra.Command {
	var (
		enabled   bool
		frequency string
		at        string
	)

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Configure automatic backups",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			page := newSettingsPage(a)
			ctx := commandContext(cmd)

			cfg, err := page.Load(ctx)
			if err != nil {
				return reported(err)
			}

			backup := cfg.Backup
			backup.NextBackup = nil
			flags := cmd.Flags()
			if flags.Changed("enabled") {
				backup.Enabled = enabled
			}
			if flags.Changed("frequency") {
				backup.Frequency = frequency
			}
			if flags.Changed("time") {
				backup.Time = at
			}

			if err := page.SaveBackup(ctx, backup); err != nil {
				msgs := admin.ErrorMessages(err)
				for _, field := range slices.Sorted(maps.Keys(msgs)) {
					fmt.Fprintf(a.out, "  %s %s: %s\n", cli.ErrorIcon, field, msgs[field])
				}
				return reported(err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&enabled, "enabled", true, "run automatic backups")
	cmd.Flags().StringVar(&frequency, "frequency", "", "daily, weekly or monthly")
	cmd.Flags().StringVar(&at, "time", "", "time of day as HH:MM")

	return cmd
}

func logoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logo <file>",
		Short: "Upload the company logo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			page := newSettingsPage(a)
			if err := page.SelectLogo(args[0]); err != nil {
				return reported(err)
			}
			if err := page.UploadLogo(commandContext(cmd)); err != nil {
				return reported(err)
			}
			return nil
		},
	}
}

func technicalCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "technical",
		Short: "Show the backend's technical parameters",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			params, err := a.client.GetTechnicalParameters(commandContext(cmd))
			if err != nil {
				return fmt.Errorf("failed to get technical parameters: %w", err)
			}
			return writeStructured(a.out, output, params)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputYAML, "output format (yaml, json)")

	return cmd
}

func healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the backend is reachable",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			ctx := commandContext(cmd)

			checks := []struct {
				name  string
				check func() (string, error)
			}{
				{name: "categories", check: func() (string, error) { return a.client.CategoriesHealth(ctx) }},
				{name: "settings", check: func() (string, error) { return a.client.SettingsHealth(ctx) }},
			}

			failed := 0
			fmt.Fprintln(a.out, cli.FormatTitle(a.client.BaseURL()))
			for _, c := range checks {
				status, err := c.check()
				if err != nil {
					failed++
					fmt.Fprintln(a.out, cli.FormatError(fmt.Sprintf("%s: %v", c.name, err)))
					continue
				}
				fmt.Fprintln(a.out, cli.FormatSuccess(fmt.Sprintf("%s: %s", c.name, status)))
			}
			if failed > 0 {
				return reported(fmt.Errorf("%d of %d health checks failed", failed, len(checks)))
			}
			return nil
		},
	}
}

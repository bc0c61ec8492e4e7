package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/Veraticus/commerce-admin/internal/api"
	"github.com/Veraticus/commerce-admin/internal/cli"
	"github.com/Veraticus/commerce-admin/internal/common"
	"github.com/Veraticus/commerce-admin/internal/config"
	"github.com/Veraticus/commerce-admin/internal/service"
	"github.com/Veraticus/commerce-admin/internal/validation"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// reportedError marks a failure the notifier already showed to the user.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

func reported(err error) error {
	if err == nil {
		return nil
	}
	return &reportedError{err: err}
}

// app bundles what a command needs to talk to the backend.
type app struct {
	cfg       *config.Config
	client    *api.Client
	notify    *cli.Notifier
	validator *validation.Validator
	out       io.Writer
}

// newApp loads the configuration and builds the backend client.
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}

	client, err := api.NewClient(api.Config{
		BaseURL:   cfg.API.BaseURL,
		Timeout:   cfg.API.Timeout,
		UserAgent: "cadmin/" + version,
		Retry: common.RetryOptions{
			MaxAttempts:  cfg.API.Retries,
			InitialDelay: 200 * time.Millisecond,
			MaxDelay:     2 * time.Second,
			Multiplier:   2,
		},
	})
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:       cfg,
		client:    client,
		notify:    cli.NewNotifier(cmd.OutOrStdout()),
		validator: validation.New(),
		out:       cmd.OutOrStdout(),
	}, nil
}

// confirmer asks on the command's streams unless force is set.
func confirmer(cmd *cobra.Command, force bool) service.Confirmer {
	if force {
		return cli.AssumeYes()
	}
	return cli.NewConfirmer(cmd.InOrStdin(), cmd.OutOrStdout())
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func parseID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid category ID %q", arg)
	}
	return id, nil
}

// Output formats for structured data.
const (
	outputTable = "table"
	outputYAML  = "yaml"
	outputJSON  = "json"
)

// writeStructured prints v as JSON or YAML. YAML keys follow the JSON names.
func writeStructured(w io.Writer, format string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}

	switch format {
	case outputJSON:
		_, err = fmt.Fprintln(w, string(data))
		return err
	case outputYAML:
		var generic any
		if err := json.Unmarshal(data, &generic); err != nil {
			return fmt.Errorf("failed to encode output: %w", err)
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return fmt.Errorf("failed to encode output: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q (want %s or %s)", format, outputYAML, outputJSON)
	}
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alex-user-go/placeomat/internal/app"
	"github.com/alex-user-go/placeomat/internal/config"
	"github.com/alex-user-go/placeomat/internal/logger"
	"github.com/alex-user-go/placeomat/internal/providers"
	"github.com/alex-user-go/placeomat/internal/search"
	"github.com/alex-user-go/placeomat/internal/search/types"
)

func newRootCmd(out io.Writer) *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "placesctl",
		Short: "Search places across Google Maps and Yelp",
		Long: `placesctl queries the configured place providers with generic search keys.

Keys such as search, location, radius and open are mapped to each provider's
own parameter names, exactly as the /search HTTP endpoint does.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log provider calls to stderr")

	services := func() (*app.Services, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		log := logger.Discard()
		if verbose {
			log = logger.New(config.EnvDevelopment, os.Stderr)
		}
		return app.NewServices(cfg, log)
	}

	var params []string
	searchCmd := &cobra.Command{
		Use:   "search [provider]",
		Short: "Search one provider, or all of them when none is given",
		Example: `  placesctl search -p search=pizza -p location=42.36,-71.05
  placesctl search yelp -p search=tacos -p location="40.7,-74.0" -p radius=1000`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := parseParams(params)
			if err != nil {
				return err
			}

			selector := search.AllProviders
			if len(args) == 1 {
				selector = args[0]
			}

			svc, err := services()
			if err != nil {
				return err
			}

			result, err := svc.Aggregator.Query(cmd.Context(), selector, query)
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}
			return printResult(out, result)
		},
	}
	searchCmd.Flags().StringArrayVarP(&params, "param", "p", nil, "query parameter as key=value (repeatable)")

	detailsCmd := &cobra.Command{
		Use:   "details <provider> <place_id>",
		Short: "Show the details links of a single place",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := services()
			if err != nil {
				return err
			}

			result, err := svc.Aggregator.Details(cmd.Context(), args[0], args[1])
			if err != nil {
				return fmt.Errorf("place details failed: %w", err)
			}
			if result.Details == nil {
				return reasonError(out, result.Status, result.Reason)
			}
			return writeJSON(out, result.Details)
		},
	}

	providersCmd := &cobra.Command{
		Use:   "providers [name]",
		Short: "List configured providers in query order, or show one provider's key mapping",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := services()
			if err != nil {
				return err
			}

			if len(args) == 0 {
				for _, pc := range svc.Config.Providers {
					fmt.Fprintf(out, "%-8s %-12s %s\n", pc.Name, pc.DisplayName, pc.URL)
				}
				return nil
			}

			pc, ok := svc.Config.Provider(args[0])
			if !ok {
				return fmt.Errorf("unknown provider %q, choices are %s", args[0], strings.Join(svc.Aggregator.Providers(), ", "))
			}
			fmt.Fprintf(out, "%s (%s)\nurl: %s\ndetails: %s\nmax radius: %d\n", pc.Name, pc.DisplayName, pc.URL, pc.DetailsURL, pc.MaxRadius)
			keys := make([]string, 0, len(pc.Params))
			for k := range pc.Params {
				keys = append(keys, k)
			}
			slices.Sort(keys)
			for _, k := range keys {
				fmt.Fprintf(out, "  %-10s -> %s\n", k, pc.Params[k])
			}
			return nil
		},
	}

	rootCmd.AddCommand(searchCmd, detailsCmd, providersCmd)
	return rootCmd
}

// parseParams turns key=value flags into a query. A bare key maps to the empty string.
func parseParams(raw []string) (providers.Params, error) {
	query := make(providers.Params, len(raw))
	for _, kv := range raw {
		key, value, _ := strings.Cut(kv, "=")
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("invalid --param %q: missing key", kv)
		}
		query[key] = value
	}
	return query, nil
}

func printResult(out io.Writer, result *types.Result) error {
	if len(result.Places) == 0 {
		return reasonError(out, result.Status, result.Reason)
	}
	return writeJSON(out, result.Places)
}

// reasonError prints the reason and fails the command unless the status is 200.
func reasonError(out io.Writer, status int, reason string) error {
	if err := writeJSON(out, types.Reason{Reason: reason}); err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("request rejected (%d): %s", status, reason)
	}
	return nil
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

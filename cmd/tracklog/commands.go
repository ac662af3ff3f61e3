package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/tracklab/tracklog"
	"github.com/tracklab/tracklog/internal/checkpoint"
	"github.com/tracklab/tracklog/internal/filter"
	logpkg "github.com/tracklab/tracklog/pkg/log"
)

// traversalOptions maps config plus shared flags onto library options.
func traversalOptions(cmd *cobra.Command, purge, smart bool, logger logpkg.Logger) tracklog.Options {
	opts := tracklog.DefaultOptions()
	opts.Purge = purge
	opts.Smart = smart
	opts.Logger = logger
	if noPurge, _ := cmd.Flags().GetBool("no-purge"); noPurge {
		opts.Purge = false
	}
	if cmd.Flags().Lookup("no-smart") != nil {
		if noSmart, _ := cmd.Flags().GetBool("no-smart"); noSmart {
			opts.Smart = false
		}
	}
	if cmd.Flags().Lookup("steps") != nil {
		if steps, _ := cmd.Flags().GetInt64Slice("steps"); len(steps) > 0 {
			opts.Steps = make(map[int64]struct{}, len(steps))
			for _, s := range steps {
				opts.Steps[s] = struct{}{}
			}
		}
	}
	if cmd.Flags().Lookup("tags") != nil {
		if tags, _ := cmd.Flags().GetStringSlice("tags"); len(tags) > 0 {
			opts.Tags = make(map[string]struct{}, len(tags))
			for _, t := range tags {
				opts.Tags[t] = struct{}{}
			}
		}
	}
	return opts
}

func newScanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan <dir>",
		Short: "List the valid log files under a directory",
		Args:  oneDirArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			c, err := tracklog.ScanDirectory(args[0])
			if err != nil {
				return err
			}
			logger.Debug("directory scanned", logpkg.Str("dir", args[0]), logpkg.Int("files", len(c.Files)))
			for _, f := range c.Files {
				fmt.Fprintln(cmd.OutOrStdout(), f.Path)
			}
			return nil
		},
	}
}

func newTagsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tags <dir>",
		Short: "List the distinct tags across a collection",
		Args:  oneDirArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			opts := traversalOptions(cmd, cfg.Purge, cfg.Smart, logger)
			seen := map[string]struct{}{}
			err = tracklog.ForEachValue(args[0], opts, func(tag string, _ int64, _ tracklog.Value) error {
				seen[tag] = struct{}{}
				return nil
			})
			if err != nil {
				return err
			}
			tags := make([]string, 0, len(seen))
			for t := range seen {
				tags = append(tags, t)
			}
			sort.Strings(tags)
			for _, t := range tags {
				fmt.Fprintln(cmd.OutOrStdout(), t)
			}
			return nil
		},
	}
	cmd.Flags().Bool("no-purge", false, "keep events past rotation boundaries")
	cmd.Flags().Bool("no-smart", false, "disable recombination of split values")
	return cmd
}

func newValuesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "values <dir>",
		Short: "Stream decoded metric values",
		Args:  oneDirArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			opts := traversalOptions(cmd, cfg.Purge, cfg.Smart, logger)

			expr, _ := cmd.Flags().GetString("filter")
			valFilter, err := filter.New(expr)
			if err != nil {
				return fmt.Errorf("--filter: %w", err)
			}

			group, _ := cmd.Flags().GetString("group")
			stateDir, _ := cmd.Flags().GetString("state-dir")
			if stateDir == "" {
				stateDir = cfg.StateDir
			}
			var store *checkpoint.Store
			var resumeAfter, highWater int64
			var resuming, advanced bool
			if group != "" {
				if stateDir == "" {
					return fmt.Errorf("--group requires --state-dir (or stateDir in config)")
				}
				store, err = checkpoint.Open(stateDir)
				if err != nil {
					return err
				}
				defer store.Close()
				if last, ok, err := store.Last(group); err != nil {
					return err
				} else if ok {
					resumeAfter, resuming = last, true
					logger.Info("resuming", logpkg.Str("group", group), logpkg.Int64("after_step", last))
				}
			}

			err = tracklog.ForEachEvent(args[0], opts, func(ev *tracklog.Event) error {
				if resuming && ev.Step <= resumeAfter {
					return nil
				}
				return tracklog.Values(ev, opts, func(tag string, v tracklog.Value) error {
					if !valFilter.Eval(tag, ev.Step, v.Kind().String(), scalarOf(v), ev.WallTime) {
						return nil
					}
					if ev.Step > highWater || !advanced {
						highWater, advanced = ev.Step, true
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\n", ev.Step, tag, formatValue(v))
					return nil
				})
			})
			if err != nil {
				return err
			}
			if store != nil && advanced {
				if err := store.Commit(group, highWater); err != nil {
					return err
				}
				logger.Debug("cursor committed", logpkg.Str("group", group), logpkg.Int64("step", highWater))
			}
			return nil
		},
	}
	cmd.Flags().StringSlice("tags", nil, "only yield these tags")
	cmd.Flags().Int64Slice("steps", nil, "only yield these steps")
	cmd.Flags().Bool("no-purge", false, "keep events past rotation boundaries")
	cmd.Flags().Bool("no-smart", false, "disable recombination of split values")
	cmd.Flags().String("filter", "", "CEL expression over tag, step, kind, value, wall_time")
	cmd.Flags().String("group", "", "resume-cursor group name")
	cmd.Flags().String("state-dir", "", "directory for the resume-cursor store")
	return cmd
}

func newEventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events <dir>",
		Short: "Stream every event, bookkeeping ones included",
		Args:  oneDirArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			opts := traversalOptions(cmd, cfg.Purge, cfg.Smart, logger)
			return tracklog.ForEachEvent(args[0], opts, func(ev *tracklog.Event) error {
				switch {
				case ev.FileVersion != "":
					fmt.Fprintf(cmd.OutOrStdout(), "%d\tfile_version\t%s\n", ev.Step, ev.FileVersion)
				default:
					fmt.Fprintf(cmd.OutOrStdout(), "%d\tevent\tsummaries=%d\n", ev.Step, len(ev.Summary))
				}
				return nil
			})
		},
	}
	cmd.Flags().Int64Slice("steps", nil, "only yield these steps")
	cmd.Flags().Bool("no-purge", false, "keep events past rotation boundaries")
	return cmd
}

func scalarOf(v tracklog.Value) float64 {
	if s, ok := v.(tracklog.Scalar); ok {
		return float64(s)
	}
	return 0
}

func formatValue(v tracklog.Value) string {
	switch val := v.(type) {
	case tracklog.Scalar:
		return fmt.Sprintf("%g", float64(val))
	case *tracklog.Histogram:
		return fmt.Sprintf("histogram n=%g range=[%g,%g] buckets=%d", val.Num, val.Min, val.Max, len(val.Buckets))
	case *tracklog.Image:
		return fmt.Sprintf("image %dx%d (%d bytes)", val.Width, val.Height, len(val.Data))
	case *tracklog.Audio:
		return fmt.Sprintf("audio %gHz (%d bytes)", val.SampleRate, len(val.Data))
	case *tracklog.Tensor:
		return fmt.Sprintf("tensor dims=%v floats=%d doubles=%d content=%dB",
			val.Dims, len(val.Floats), len(val.Doubles), len(val.Content))
	default:
		return fmt.Sprintf("%v", v)
	}
}

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/airwaves/internal/formatter"
	"github.com/desertthunder/airwaves/internal/models"
	"github.com/desertthunder/airwaves/internal/shared"
	"github.com/urfave/cli/v3"
)

func usernameFrom(raw string) (string, error) {
	username := shared.NormalizeUsername(raw)
	if username == "" {
		return "", fmt.Errorf("%w: username", shared.ErrMissingArgument)
	}
	return username, nil
}

// RecordsGet prints a user's record, creating the default record when the user is new.
func (r *Runner) RecordsGet(ctx context.Context, cmd *cli.Command) error {
	username, err := usernameFrom(cmd.StringArg("username"))
	if err != nil {
		return err
	}

	records, err := r.store()
	if err != nil {
		return err
	}

	record, err := records.FetchOrCreate(ctx, username)
	if err != nil {
		return fmt.Errorf("failed to read record: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(record, cmd.Bool("pretty"))
	}

	profile, err := models.ProfileFromRecord(record)
	if err != nil {
		return err
	}
	return r.writePlain("%s\n", formatter.RenderProfile(profile))
}

// RecordsSet merges field=value pairs into an existing record.
func (r *Runner) RecordsSet(ctx context.Context, cmd *cli.Command) error {
	args := cmd.Args().Slice()
	if len(args) < 2 {
		return fmt.Errorf("%w: usage: records set <username> field=value...", shared.ErrMissingArgument)
	}

	username, err := usernameFrom(args[0])
	if err != nil {
		return err
	}

	patch, err := models.ParsePatch(args[1:])
	if err != nil {
		return err
	}
	if role, ok := patch["role"]; ok {
		s, _ := role.(string)
		if err := models.ValidateRole(s); err != nil {
			return err
		}
	}

	records, err := r.store()
	if err != nil {
		return err
	}

	if err := records.Update(ctx, username, patch); err != nil {
		return fmt.Errorf("failed to apply patch: %w", err)
	}

	fields := make([]string, 0, len(patch))
	for field := range patch {
		fields = append(fields, field)
	}
	r.logger.Debug("patch applied", "username", username, "fields", fields)
	return r.writePlain("✓ submitted %d field(s) for %s\n", len(patch), username)
}

// RecordsPoints adjusts a user's points by --add.
//
// The new balance is computed from the record read immediately before the patch is queued.
func (r *Runner) RecordsPoints(ctx context.Context, cmd *cli.Command) error {
	username, err := usernameFrom(cmd.StringArg("username"))
	if err != nil {
		return err
	}

	records, err := r.store()
	if err != nil {
		return err
	}

	record, err := records.FetchOrCreate(ctx, username)
	if err != nil {
		return fmt.Errorf("failed to read record: %w", err)
	}
	profile, err := models.ProfileFromRecord(record)
	if err != nil {
		return err
	}

	patch := models.PointsPatch(profile, int(cmd.Int("add")))
	if err := records.Update(ctx, username, patch); err != nil {
		return fmt.Errorf("failed to update points: %w", err)
	}
	return r.writePlain("%s now has %v points\n", username, patch["points"])
}

// RecordsFavorite adds or removes a favourite station.
func (r *Runner) RecordsFavorite(ctx context.Context, cmd *cli.Command) error {
	username, err := usernameFrom(cmd.StringArg("username"))
	if err != nil {
		return err
	}

	station := strings.TrimSpace(cmd.String("station"))
	if station == "" {
		return fmt.Errorf("%w: --station", shared.ErrInvalidFlag)
	}

	records, err := r.store()
	if err != nil {
		return err
	}

	record, err := records.FetchOrCreate(ctx, username)
	if err != nil {
		return fmt.Errorf("failed to read record: %w", err)
	}
	profile, err := models.ProfileFromRecord(record)
	if err != nil {
		return err
	}

	remove := cmd.Bool("remove")
	if err := records.Update(ctx, username, models.FavoritePatch(profile, station, remove)); err != nil {
		return fmt.Errorf("failed to update favorites: %w", err)
	}

	if remove {
		return r.writePlain("✓ removed %s from %s's favorites\n", station, username)
	}
	return r.writePlain("✓ added %s to %s's favorites\n", station, username)
}

// RecordsRole changes a user's role.
func (r *Runner) RecordsRole(ctx context.Context, cmd *cli.Command) error {
	username, err := usernameFrom(cmd.StringArg("username"))
	if err != nil {
		return err
	}

	patch, err := models.RolePatch(strings.TrimSpace(cmd.StringArg("role")))
	if err != nil {
		return err
	}

	records, err := r.store()
	if err != nil {
		return err
	}

	if err := records.Update(ctx, username, patch); err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}
	return r.writePlain("✓ %s is now %s\n", username, patch["role"])
}

// RecordsDelete removes a user's record.
func (r *Runner) RecordsDelete(ctx context.Context, cmd *cli.Command) error {
	username, err := usernameFrom(cmd.StringArg("username"))
	if err != nil {
		return err
	}

	records, err := r.store()
	if err != nil {
		return err
	}

	if err := records.Delete(ctx, username); err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return r.writePlain("✓ deleted %s\n", username)
}

// RecordsList prints the usernames that have a stored record.
func (r *Runner) RecordsList(ctx context.Context, cmd *cli.Command) error {
	records, err := r.store()
	if err != nil {
		return err
	}

	usernames, err := records.Keys()
	if err != nil {
		return fmt.Errorf("failed to list records: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(usernames, false)
	}

	for _, username := range usernames {
		if err := r.writePlain("%s\n", username); err != nil {
			return err
		}
	}
	return nil
}

// RecordsExport renders one record, or with --all a CSV leaderboard of every user.
func (r *Runner) RecordsExport(ctx context.Context, cmd *cli.Command) error {
	records, err := r.store()
	if err != nil {
		return err
	}

	var data []byte
	if cmd.Bool("all") {
		usernames, err := records.Keys()
		if err != nil {
			return fmt.Errorf("failed to list records: %w", err)
		}

		profiles := make([]*models.UserProfile, 0, len(usernames))
		for _, username := range usernames {
			record, err := records.FetchOrCreate(ctx, username)
			if err != nil {
				return fmt.Errorf("failed to read record %s: %w", username, err)
			}
			profile, err := models.ProfileFromRecord(record)
			if err != nil {
				r.logger.Warn("skipping malformed record", "username", username, "error", err)
				continue
			}
			profiles = append(profiles, profile)
		}

		if data, err = formatter.ExportToCSV(profiles); err != nil {
			return err
		}
	} else {
		username, err := usernameFrom(cmd.StringArg("username"))
		if err != nil {
			return err
		}

		record, err := records.FetchOrCreate(ctx, username)
		if err != nil {
			return fmt.Errorf("failed to read record: %w", err)
		}

		if data, err = formatter.Export(record, cmd.String("format")); err != nil {
			return err
		}
	}

	if path := cmd.String("output"); path != "" {
		if err := formatter.WriteExport(data, path); err != nil {
			return err
		}
		r.logger.Info("export written", "path", path, "bytes", len(data))
		return nil
	}

	_, err = r.output.Write(data)
	return err
}

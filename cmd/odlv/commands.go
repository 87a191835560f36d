package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/odlvideo/odlv/internal/app"
	"github.com/odlvideo/odlv/internal/odl"
	"github.com/odlvideo/odlv/internal/pagination"
)

var errNoResult = errors.New("request failed")

// failed picks the error recorded in the store for a call that returned no
// payload.
func failed(recorded error) error {
	if recorded != nil {
		return recorded
	}
	return errNoResult
}

func newCollectionsCmd(flags *rootFlags) *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:   "collections",
		Short: "List one page of collections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(ctx context.Context, a *app.App) error {
				task, err := a.SelectPage(ctx, page)
				if err != nil {
					return err
				}
				if task != nil {
					if _, err := task.Wait(ctx); err != nil {
						return err
					}
				}
				pages := a.Store.State().CollectionsPagination
				entry, _ := pages.Page(page)
				if entry.Status == pagination.StatusError {
					return fmt.Errorf("page %d: %w", page, entry.Error)
				}

				t := newTable("Title", "Videos", "Key")
				for _, c := range entry.Collections {
					t.Row(c.Title, strconv.Itoa(c.VideoCount), c.Key)
				}
				fmt.Fprintln(cmd.OutOrStdout(), t.Render())
				fmt.Fprintf(cmd.OutOrStdout(), "Page %d/%d · %d-%d of %d\n", page, pages.NumPages, entry.StartIndex, entry.EndIndex, pages.Count)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	return cmd
}

func newCollectionCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "collection KEY",
		Short: "Show a collection and its videos",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, a *app.App) error {
				c, err := a.Endpoints.GetCollection(ctx, a.Store, args[0])
				if err != nil {
					return err
				}
				if c == nil {
					return failed(a.Store.State().Collections.Error)
				}
				printCollection(cmd, c)
				return nil
			})
		},
	}
}

func newVideoCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "video KEY",
		Short: "Show a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, a *app.App) error {
				v, err := a.Endpoints.GetVideo(ctx, a.Store, args[0])
				if err != nil {
					return err
				}
				if v == nil {
					return failed(a.Store.State().Videos.Error)
				}
				printVideo(cmd, v)
				return nil
			})
		},
	}
}

func newVideoUpdateCmd(flags *rootFlags) *cobra.Command {
	var title, description string
	cmd := &cobra.Command{
		Use:   "video-update KEY",
		Short: "Change a video's title or description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var body odl.VideoUpdate
			if cmd.Flags().Changed("title") {
				body.Title = &title
			}
			if cmd.Flags().Changed("description") {
				body.Description = &description
			}
			if body.Title == nil && body.Description == nil {
				return errors.New("nothing to update: pass --title or --description")
			}
			return withApp(cmd, flags, func(ctx context.Context, a *app.App) error {
				v, err := a.Endpoints.UpdateVideo(ctx, a.Store, args[0], body)
				if err != nil {
					return err
				}
				if v == nil {
					return failed(a.Store.State().Videos.Error)
				}
				printVideo(cmd, v)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	return cmd
}

func newVideoDeleteCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "video-delete KEY",
		Short: "Delete a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, a *app.App) error {
				if err := a.Endpoints.DeleteVideo(ctx, a.Store, args[0]); err != nil {
					return err
				}
				if err := a.Store.State().Videos.Error; err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted video %s\n", args[0])
				return nil
			})
		},
	}
}

func newSubtitleDeleteCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "subtitle-delete ID",
		Short: "Delete a subtitle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("subtitle id %q: %w", args[0], err)
			}
			return withApp(cmd, flags, func(ctx context.Context, a *app.App) error {
				ok, err := a.DeleteSubtitle(ctx, id)
				if err != nil {
					return err
				}
				if !ok {
					return failed(a.Store.State().VideoSubtitles.Error)
				}
				for _, msg := range a.Store.State().Toasts.Messages {
					fmt.Fprintln(cmd.OutOrStdout(), msg.Content)
				}
				return nil
			})
		},
	}
}

func newAnalyticsCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "analytics KEY",
		Short: "Show view counts of a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, a *app.App) error {
				an, err := a.Endpoints.GetVideoAnalytics(ctx, a.Store, args[0])
				if err != nil {
					return err
				}
				if an == nil {
					return failed(a.Store.State().VideoAnalytics.Error)
				}
				printAnalytics(cmd, an)
				return nil
			})
		},
	}
}

func newWhoamiCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the configured user and service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(_ context.Context, a *app.App) error {
				s := a.Store.Settings()
				email := s.UserEmail
				if email == "" {
					email = "(anonymous)"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "user:     %s\n", email)
				fmt.Fprintf(cmd.OutOrStdout(), "service:  %s\n", s.BaseURL)
				fmt.Fprintf(cmd.OutOrStdout(), "admin:    %t\n", s.IsAppAdmin)
				fmt.Fprintf(cmd.OutOrStdout(), "editable: %t\n", s.Editable)
				var enabled []string
				for name, on := range s.Features {
					if on {
						enabled = append(enabled, name)
					}
				}
				sort.Strings(enabled)
				if len(enabled) > 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "features: %s\n", strings.Join(enabled, ", "))
				}
				return nil
			})
		},
	}
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...)
}

func printCollection(cmd *cobra.Command, c *odl.Collection) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", c.Title, c.Key)
	if c.Description != "" {
		fmt.Fprintln(cmd.OutOrStdout(), c.Description)
	}
	t := newTable("Video", "Status", "Key")
	for _, v := range c.Videos {
		t.Row(v.Title, v.Status, v.Key)
	}
	fmt.Fprintln(cmd.OutOrStdout(), t.Render())
}

func printVideo(cmd *cobra.Command, v *odl.Video) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", v.Title, v.Key)
	fmt.Fprintf(cmd.OutOrStdout(), "collection: %s (%s)\n", v.CollectionTitle, v.CollectionKey)
	fmt.Fprintf(cmd.OutOrStdout(), "status:     %s\n", v.Status)
	if v.Description != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "description: %s\n", v.Description)
	}
	if len(v.Subtitles) > 0 {
		t := newTable("Subtitle", "Language", "File")
		for _, s := range v.Subtitles {
			t.Row(strconv.Itoa(s.ID), s.Language, s.Filename)
		}
		fmt.Fprintln(cmd.OutOrStdout(), t.Render())
	}
}

func printAnalytics(cmd *cobra.Command, an *odl.VideoAnalytics) {
	headers := append([]string{"Time"}, an.Channels...)
	t := newTable(headers...)
	for _, at := range an.Times {
		row := []string{strconv.Itoa(at)}
		byChannel := an.ViewsAtTimes[strconv.Itoa(at)]
		for _, ch := range an.Channels {
			row = append(row, strconv.Itoa(byChannel[ch]))
		}
		t.Row(row...)
	}
	fmt.Fprintln(cmd.OutOrStdout(), t.Render())
	for _, ch := range an.Channels {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d views\n", ch, an.TotalViews(ch))
	}
}

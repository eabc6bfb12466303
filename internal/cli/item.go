package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

func newItemsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "items",
		Short: "Lost and found item commands",
	}

	cmd.AddCommand(newItemsReportCmd())
	cmd.AddCommand(newItemsListCmd())
	cmd.AddCommand(newItemsGetCmd())

	return cmd
}

func newItemsReportCmd() *cobra.Command {
	var (
		title, description, location, status, imageURL string
		lat, lng                                       float64
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Report a lost or found item",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{
				"title":       title,
				"description": description,
				"location":    location,
				"status":      status,
				"image_url":   imageURL,
			}
			// Coordinates only when both are given
			if cmd.Flags().Changed("lat") && cmd.Flags().Changed("lng") {
				req["coordinates"] = Coordinates{Lat: lat, Lng: lng}
			} else if cmd.Flags().Changed("lat") || cmd.Flags().Changed("lng") {
				return fmt.Errorf("--lat and --lng must be given together")
			}

			var result ItemResult
			if err := client.Post("/items", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Short title (required)")
	cmd.Flags().StringVar(&description, "description", "", "Longer description")
	cmd.Flags().StringVar(&location, "location", "", "Where it was lost or found (required)")
	cmd.Flags().StringVar(&status, "status", "", "lost or found (required)")
	cmd.Flags().StringVar(&imageURL, "image-url", "", "Link to a photo")
	cmd.Flags().Float64Var(&lat, "lat", 0, "Latitude")
	cmd.Flags().Float64Var(&lng, "lng", 0, "Longitude")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("location")
	_ = cmd.MarkFlagRequired("status")

	return cmd
}

func newItemsListCmd() *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List items, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			switch status {
			case "":
				path = "/items/items"
			case "lost":
				path = "/items/lost-items"
			case "found":
				path = "/items/found-items"
			default:
				return fmt.Errorf("--status must be lost or found, got %q", status)
			}

			var result []Item
			if err := client.Get(path, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Only lost or only found items")

	return cmd
}

func newItemsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Item
			if err := client.Get("/items/"+url.PathEscape(args[0]), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}

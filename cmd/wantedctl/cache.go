package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/your-org/wanted/internal/domain"
	"github.com/your-org/wanted/internal/handlers"
)

const requestTimeout = 30 * time.Second

func newStatsCmd(addr *string) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := callAdmin(cmd.Context(), http.MethodGet, *addr, "/api/cache/stats")
			if err != nil {
				return err
			}
			printStats(cmd.OutOrStdout(), resp)
			return nil
		},
	}
}

func newClearCmd(addr *string) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Drop every cache entry and reset counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := callAdmin(cmd.Context(), http.MethodPost, *addr, "/api/cache/clear")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
			return nil
		},
	}
}

func newWarmupCmd(addr *string) *cobra.Command {
	return &cobra.Command{
		Use:   "warmup",
		Short: "Preload the first page of the wanted list",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := callAdmin(cmd.Context(), http.MethodPost, *addr, "/api/cache/warmup")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
			printStats(cmd.OutOrStdout(), resp)
			return nil
		},
	}
}

func callAdmin(ctx context.Context, method, addr, path string) (*handlers.StatusResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(addr, "/")+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
		return nil, fmt.Errorf("%s %s: unexpected status %d: %s", method, path, res.StatusCode, strings.TrimSpace(string(body)))
	}

	var out handlers.StatusResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}

func printStats(w io.Writer, resp *handlers.StatusResponse) {
	s := resp.Stats
	fmt.Fprintf(w, "Hits:     %d\nMisses:   %d\nSets:     %d\nDeletes:  %d\nHit rate: %d%%\nKeys:     %d\n",
		s.Hits, s.Misses, s.Sets, s.Deletes, s.HitRate, s.TotalKeys)

	categories := make([]domain.Category, 0, len(s.CacheSizes))
	for cat := range s.CacheSizes {
		categories = append(categories, cat)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })
	for _, cat := range categories {
		fmt.Fprintf(w, "  %-8s %d\n", cat, s.CacheSizes[cat])
	}
}

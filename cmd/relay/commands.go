package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/user/relay-service/internal/adapter/httpfetch"
	"github.com/user/relay-service/internal/entity"
	"github.com/user/relay-service/pkg/config"
	"github.com/user/relay-service/pkg/logger"
)

func extractCMD() *cobra.Command {
	var selector, mode string
	var extract = &cobra.Command{
		Use:   "extract <url>",
		Short: "Extract the article fragment of a page and print it as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log, err := logger.New(cfg.LogLevel)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			m, err := entity.ParseMode(mode)
			if err != nil {
				return err
			}
			result, err := newExtractor(cfg, log, httpfetch.NewUserAgents()).Extract(cmd.Context(), &entity.ExtractionRequest{
				URL:      args[0],
				Selector: selector,
				Mode:     m,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}
	extract.Flags().StringVarP(&selector, "selector", "s", "", "CSS selector of the article container (default DEFAULT_SELECTOR)")
	extract.Flags().StringVarP(&mode, "type", "t", "auto", "extraction type: selector, script-data or auto")
	return extract
}

func loginCMD() *cobra.Command {
	return &cobra.Command{
		Use:   "login <channel>",
		Short: "Log in to a platform with the configured account and cache the session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			channel, err := channelArg(args)
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			result, err := a.sessions.Login(cmd.Context(), channel)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]any{
				"success":         true,
				"cookies":         result.Cookies,
				"extractedFields": result.ExtractedFields,
			})
		},
	}
}

func logoutCMD() *cobra.Command {
	var all bool
	var logout = &cobra.Command{
		Use:   "logout [channel]",
		Short: "Clear the cached session of a platform, or of every platform with --all",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) == 0 {
				return fmt.Errorf("a channel or --all is required")
			}
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			if all {
				return a.sessions.LogoutAll(cmd.Context())
			}
			channel, err := channelArg(args)
			if err != nil {
				return err
			}
			return a.sessions.Logout(cmd.Context(), channel)
		},
	}
	logout.Flags().BoolVar(&all, "all", false, "clear every cached session")
	return logout
}

func checkCMD() *cobra.Command {
	var cookie string
	var check = &cobra.Command{
		Use:   "check",
		Short: "Show cached session status and ask the 135 editor whether its cookie is still valid",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			statuses := make([]*entity.SessionStatus, 0, len(entity.Channels))
			for _, c := range entity.Channels {
				statuses = append(statuses, a.sessions.Status(cmd.Context(), c))
			}
			result, err := a.sessions.Check(cmd.Context(), entity.ParseCookieHeader(cookie))
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]any{"sessions": statuses, "editor135": result})
		},
	}
	check.Flags().StringVar(&cookie, "cookie", "", "cookie header to check instead of the cached session")
	return check
}

func publishCMD() *cobra.Command {
	var title, file, target string
	var publish = &cobra.Command{
		Use:   "publish <channel>",
		Short: "Save an HTML fragment as an article on a platform",
		Long:  "Save an HTML fragment as an article on a platform. The content is read from --file, or from stdin when --file is - or empty.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			channel, err := channelArg(args)
			if err != nil {
				return err
			}
			content, err := readContent(cmd, file)
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			outcome, err := a.saver.Save(cmd.Context(), channel, &entity.PublishRequest{
				Title:           title,
				Content:         content,
				TargetAccountID: target,
			})
			if outcome != nil {
				_ = printJSON(cmd, outcome)
			}
			return err
		},
	}
	publish.Flags().StringVar(&title, "title", "", "article title")
	publish.Flags().StringVarP(&file, "file", "f", "", "file holding the HTML content (- for stdin)")
	publish.Flags().StringVar(&target, "target", "", "target account id (96 only)")
	_ = publish.MarkFlagRequired("title")
	return publish
}

func transferCMD() *cobra.Command {
	return &cobra.Command{
		Use:   "transfer <template-id> <creator>",
		Short: "Hand a saved 135 template over to another account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			result, err := a.sessions.Transfer(cmd.Context(), &entity.TransferRequest{ID: args[0], Creator: args[1]})
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}
}

func historyCMD() *cobra.Command {
	var channel string
	var limit int
	var history = &cobra.Command{
		Use:   "history",
		Short: "List recent publish attempts from the publish log",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			if a.publishLog == nil {
				return fmt.Errorf("publish log is disabled, set POSTGRES_URL")
			}
			var c entity.Channel
			if channel != "" {
				if c, err = entity.ParseChannel(channel); err != nil {
					return err
				}
			}
			records, err := a.publishLog.ListRecent(cmd.Context(), c, limit)
			if err != nil {
				return err
			}
			return printJSON(cmd, records)
		},
	}
	history.Flags().StringVar(&channel, "channel", "", "only this channel")
	history.Flags().IntVar(&limit, "limit", 20, "number of records")
	return history
}

func readContent(cmd *cobra.Command, file string) (string, error) {
	var r io.Reader = cmd.InOrStdin()
	if file != "" && file != "-" {
		f, err := os.Open(file)
		if err != nil {
			return "", err
		}
		defer f.Close()
		r = f
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read content: %w", err)
	}
	return string(data), nil
}

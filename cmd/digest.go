package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"skypeconnector/pkg/config"
	"skypeconnector/pkg/digester"
	"skypeconnector/pkg/lang"
	"skypeconnector/pkg/logger"
	"skypeconnector/pkg/ui/preview"

	"github.com/spf13/cobra"
)

var (
	digestConfigPath string
	digestPreview    bool
	lastQuestion     string
	rateCode         string
)

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Run the message digester on local payloads",
	Long:  "Converts Skype activities and backend answers from a file or stdin without contacting either side.",
}

var digestInboundCmd = &cobra.Command{
	Use:   "inbound [file]",
	Short: "Convert a Skype activity into backend requests",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := loadDigester(digestConfigPath)
		if err != nil {
			return err
		}

		payload, err := readPayload(cmd.InOrStdin(), args)
		if err != nil {
			return err
		}

		requests, err := d.DigestInbound(payload)
		if err != nil {
			return err
		}
		if requests == nil {
			requests = []digester.CanonicalRequest{}
		}

		return writeJSON(cmd.OutOrStdout(), requests)
	},
}

var digestOutboundCmd = &cobra.Command{
	Use:   "outbound [file]",
	Short: "Render backend answers as Skype messages",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := loadDigester(digestConfigPath)
		if err != nil {
			return err
		}

		payload, err := readPayload(cmd.InOrStdin(), args)
		if err != nil {
			return err
		}

		messages, err := d.DigestOutbound(payload, lastQuestion)
		if err != nil {
			return err
		}

		return writeMessages(cmd.OutOrStdout(), messages, digestPreview)
	},
}

var digestRatingCmd = &cobra.Command{
	Use:   "rating [file]",
	Short: "Build the content rating card from a JSON list of options",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := loadDigester(digestConfigPath)
		if err != nil {
			return err
		}

		payload, err := readPayload(cmd.InOrStdin(), args)
		if err != nil {
			return err
		}

		options, err := parseRatingOptions(payload)
		if err != nil {
			return err
		}

		msg, err := d.BuildRatingMessage(options, rateCode)
		if err != nil {
			return err
		}

		return writeMessages(cmd.OutOrStdout(), []digester.Message{msg}, digestPreview)
	},
}

var digestEscalationCmd = &cobra.Command{
	Use:   "escalation",
	Short: "Build the escalation offer card",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_ = args

		d, err := loadDigester(digestConfigPath)
		if err != nil {
			return err
		}

		msg, err := d.BuildEscalationMessage()
		if err != nil {
			return err
		}

		return writeMessages(cmd.OutOrStdout(), []digester.Message{msg}, digestPreview)
	},
}

func init() {
	rootCmd.AddCommand(digestCmd)
	digestCmd.AddCommand(digestInboundCmd, digestOutboundCmd, digestRatingCmd, digestEscalationCmd)

	digestCmd.PersistentFlags().StringVarP(&digestConfigPath, "config", "c", "", "config file (defaults to the usual lookup, then built-in defaults)")
	digestCmd.PersistentFlags().BoolVar(&digestPreview, "preview", false, "draw messages in the terminal instead of printing JSON")
	digestOutboundCmd.Flags().StringVarP(&lastQuestion, "question", "q", "", "last user question threaded into button values")
	digestRatingCmd.Flags().StringVar(&rateCode, "code", "", "content code being rated")
}

// loadDigester builds a digester from the given config file, the default config
// lookup, or built-in defaults when no file exists.
func loadDigester(path string) (*digester.Digester, error) {
	cfg, err := loadDigestConfig(path)
	if err != nil {
		return nil, err
	}

	appLogger, err := logger.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}
	slog.SetDefault(appLogger)

	translations, err := lang.New(cfg.Lang)
	if err != nil {
		return nil, fmt.Errorf("load translations: %w", err)
	}

	return digester.New(cfg.Digester, translations, appLogger), nil
}

func loadDigestConfig(path string) (*config.Config, error) {
	if path = strings.TrimSpace(path); path != "" {
		return config.LoadFile(path)
	}

	cfg, err := config.LoadConfig()
	if errors.Is(err, config.ErrNotFound) {
		return &config.Config{}, nil
	}
	return cfg, err
}

// readPayload reads the file named by args[0], or in when no file (or "-") is given.
func readPayload(in io.Reader, args []string) ([]byte, error) {
	if len(args) > 0 && args[0] != "-" {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return nil, fmt.Errorf("read payload: %w", err)
		}
		return data, nil
	}

	if in == nil {
		return nil, errors.New("no payload file given and stdin is unavailable")
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return nil, fmt.Errorf("read payload from stdin: %w", err)
	}
	return data, nil
}

func parseRatingOptions(payload []byte) ([]digester.RatingOption, error) {
	var options []digester.RatingOption
	if err := json.Unmarshal(payload, &options); err != nil {
		return nil, fmt.Errorf("parse rating options: %w", err)
	}
	if len(options) == 0 {
		return nil, errors.New("at least one rating option is required")
	}
	return options, nil
}

func writeMessages(w io.Writer, messages []digester.Message, drawPreview bool) error {
	if drawPreview {
		_, err := fmt.Fprintln(w, preview.Render(messages))
		return err
	}
	if messages == nil {
		messages = []digester.Message{}
	}
	return writeJSON(w, messages)
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"apiplay/internal/format"
	"apiplay/internal/keys"
	"apiplay/internal/logging"
	"apiplay/internal/model"
)

// sensitiveHeaders are redacted before headers are logged
var sensitiveHeaders = map[string]bool{
	"authorization":       true,
	"proxy-authorization": true,
	"cookie":              true,
	"x-api-key":           true,
	"api-key":             true,
	"x-auth-token":        true,
	"x-csrf-token":        true,
	"x-access-token":      true,
	"x-refresh-token":     true,
	"x-session-token":     true,
	"x-secret-key":        true,
}

var (
	headers     []string
	data        string
	timeoutSecs int
	selectPath  string
)

func init() {
	for _, method := range model.Methods {
		cmd := &cobra.Command{
			Use:   strings.ToLower(string(method)) + " <url>",
			Short: fmt.Sprintf("Send a %s request", method),
			Args:  cobra.ExactArgs(1),
			RunE:  runRequest(method),
		}
		addRequestFlags(cmd)
		rootCmd.AddCommand(cmd)
	}
}

func addRequestFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&headers, "header", "H", []string{}, "Add header (can be used multiple times)")
	cmd.Flags().StringVarP(&data, "data", "d", "", "Request body (JSON string or @filename), sent for POST and PUT")
	cmd.Flags().IntVarP(&timeoutSecs, "timeout", "t", 0, "Abort the request after this many seconds (1-15)")
	cmd.Flags().StringVarP(&selectPath, "select", "s", "", "Print only this gjson path of the response body")
}

func runRequest(method model.Method) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()

		body := data
		if strings.HasPrefix(body, "@") {
			content, err := readBodyFromFile(strings.TrimPrefix(body, "@"))
			if err != nil {
				return withExit(ExitValidationError, fmt.Errorf("failed to read file: %w", err))
			}
			body = content
		}

		logger, closeLog, err := newLogger(errOut)
		if err != nil {
			return withExit(ExitConfigError, err)
		}
		defer closeLog()

		headerMap := parseHeaders(headers)
		if len(headerMap) > 0 {
			logger.Debug("extra headers", logging.F("headers", filterSensitiveHeaders(headerMap)))
		}
		if body != "" && !method.HasBody() {
			logger.Warn("body is only sent with POST and PUT", logging.F("method", string(method)))
		}

		ctrl, cleanup, err := newController(logger, headerMap)
		if err != nil {
			return err
		}
		defer cleanup()

		bus := keys.NewBus()
		ctrl.Mount(bus)
		defer ctrl.Close()

		ctrl.SetMethod(method)
		ctrl.SetURL(args[0])
		ctrl.SetBody(body)
		if cmd.Flags().Changed("timeout") {
			ctrl.SetTimeout(&timeoutSecs)
		}

		format.RenderRequestLine(errOut, ctrl.Snapshot().Draft)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt)
		defer signal.Stop(sigCh)

		sub, err := ctrl.Submit(cmd.Context())
		if err != nil {
			format.RenderFieldErrors(errOut, ctrl.Snapshot())
			return withExit(ExitValidationError, nil)
		}

		fmt.Fprintf(errOut, "%s (Ctrl+C to cancel)\n", format.StateLabel(model.StateSending))
	wait:
		for {
			select {
			case <-sub.Done():
				break wait
			case <-sigCh:
				// Ctrl+C plays the role of Escape
				bus.Publish(keys.Escape)
			}
		}

		snap := ctrl.Snapshot()
		if snap.State == model.StateSuccess && selectPath != "" {
			value, ok := format.Select(snap.Result.Body, selectPath)
			if !ok {
				return withExit(ExitValidationError, fmt.Errorf("path %q not found in response body", selectPath))
			}
			fmt.Fprintln(out, value)
			return nil
		}

		format.RenderPanel(out, snap)
		return resultExit(snap)
	}
}

// resultExit maps a settled snapshot to the process exit status
func resultExit(snap model.Snapshot) error {
	switch {
	case snap.State == model.StateSuccess:
		return nil
	case snap.Result != nil && snap.Result.HTTPStatus != 0:
		return withExit(ExitHTTPError, nil)
	default:
		return withExit(ExitNetworkError, nil)
	}
}

func parseHeaders(headerStrings []string) map[string]string {
	result := make(map[string]string)
	for _, h := range headerStrings {
		parts := strings.SplitN(h, ":", 2)
		if len(parts) == 2 {
			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])
			result[key] = value
		}
	}
	return result
}

// readBodyFromFile reads file content with path validation to prevent directory traversal
func readBodyFromFile(filename string) (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}

	absPath, err := filepath.Abs(filename)
	if err != nil {
		return "", fmt.Errorf("invalid file path: %w", err)
	}
	cleanPath := filepath.Clean(absPath)

	if !strings.HasPrefix(cleanPath, wd+string(filepath.Separator)) && cleanPath != wd {
		return "", fmt.Errorf("access denied: file must be within current directory")
	}

	// symlink targets must stay inside the working directory too
	realPath, err := filepath.EvalSymlinks(cleanPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("failed to resolve path: %w", err)
		}
		realPath = cleanPath
	} else if !strings.HasPrefix(realPath, wd+string(filepath.Separator)) && realPath != wd {
		return "", fmt.Errorf("access denied: symlink target must be within current directory")
	}

	content, err := os.ReadFile(realPath)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

// filterSensitiveHeaders returns a copy of headers with sensitive values redacted
func filterSensitiveHeaders(headers map[string]string) map[string]string {
	if headers == nil {
		return nil
	}

	filtered := make(map[string]string, len(headers))
	for k, v := range headers {
		if sensitiveHeaders[strings.ToLower(k)] {
			filtered[k] = "[REDACTED]"
		} else {
			filtered[k] = v
		}
	}
	return filtered
}

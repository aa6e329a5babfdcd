package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dealbridge/gateway/internal/infrastructure/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the gateway configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Interactively write credentials to the config file",
	Long:  `Prompt for the gateway API key and the Jira and Pipedrive credentials and save them to the config file (default ./config.yaml). Secrets are read without echo. Press Enter to keep a current value.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Existing values become the prompt defaults
		existing := config.Credentials{}
		if cfg, err := config.LoadFile(cfgFile); err == nil {
			existing = config.CredentialsFrom(cfg)
		}

		p := &prompter{in: bufio.NewReader(os.Stdin), out: cmd.OutOrStdout(), fd: int(os.Stdin.Fd())}
		creds := config.Credentials{
			JiraBaseURL:    p.line("Jira URL (e.g. https://your-org.atlassian.net)", existing.JiraBaseURL),
			JiraEmail:      p.line("Jira account email", existing.JiraEmail),
			JiraProjectKey: p.line("Default Jira project key", existing.JiraProjectKey),
		}
		var err error
		if creds.JiraAPIToken, err = p.secret("Jira API token", existing.JiraAPIToken); err != nil {
			return err
		}
		if creds.PipedriveAPIToken, err = p.secret("Pipedrive API token", existing.PipedriveAPIToken); err != nil {
			return err
		}
		if creds.APIKey, err = p.secret("Gateway API key (X-API-Key)", existing.APIKey); err != nil {
			return err
		}
		if p.err != nil {
			return p.err
		}

		if creds.JiraBaseURL == "" || creds.JiraEmail == "" || creds.JiraAPIToken == "" || creds.PipedriveAPIToken == "" {
			return fmt.Errorf("jira url, email, token and pipedrive token are all required")
		}

		path := cfgFile
		if path == "" {
			path = config.DefaultFileName
		}
		if err := config.SaveCredentials(path, creds); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Configuration saved to %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration with secrets masked",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		out, err := cfg.Redacted().DisplayYAML()
		if err != nil {
			return fmt.Errorf("rendering config: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

// prompter reads answers from a terminal; the first read error sticks
type prompter struct {
	in  *bufio.Reader
	out io.Writer
	fd  int
	err error
}

func (p *prompter) line(label, current string) string {
	if p.err != nil {
		return current
	}
	if current != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", label, current)
	} else {
		fmt.Fprintf(p.out, "%s: ", label)
	}
	return p.read(label, current)
}

func (p *prompter) read(label, current string) string {
	answer, err := p.in.ReadString('\n')
	if err != nil && err != io.EOF {
		p.err = fmt.Errorf("reading %s: %w", label, err)
		return current
	}
	if answer = strings.TrimSpace(answer); answer == "" {
		return current
	}
	return answer
}

func (p *prompter) secret(label, current string) (string, error) {
	if current != "" {
		fmt.Fprintf(p.out, "%s [keep current] (input hidden): ", label)
	} else {
		fmt.Fprintf(p.out, "%s (input hidden): ", label)
	}
	// Piped input has no terminal to mask
	if !term.IsTerminal(p.fd) {
		answer := p.read(label, current)
		return answer, p.err
	}
	raw, err := term.ReadPassword(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", label, err)
	}
	if answer := strings.TrimSpace(string(raw)); answer != "" {
		return answer, nil
	}
	return current, nil
}

func init() {
	configCmd.AddCommand(configInitCmd, configShowCmd)
	rootCmd.AddCommand(configCmd)
}

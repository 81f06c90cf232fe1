// Command relay is a small CLI over the chat-streaming adapter layer. It
// resolves a provider runtime from the dispatch table and either prints its
// model catalog or streams a chat completion to stdout.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/relaykit/relay"
	"github.com/relaykit/relay/config"
	"github.com/relaykit/relay/runtime"
)

var (
	configPath string
	providerID string
	modelID    string
	noStream   bool
)

func main() {
	// Best effort: a missing .env simply means credentials come from the
	// real environment or the config file.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:           "relay",
		Short:         "Stream chat completions through provider-agnostic runtimes",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "relay.yaml", "path to the YAML config file")
	rootCmd.PersistentFlags().StringVar(&providerID, "provider", "", "provider id (defaults to the config's default)")

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "Print the provider's model catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := resolveRuntime()
			if err != nil {
				return err
			}
			for _, card := range rt.Models() {
				fmt.Printf("%-16s %-16s ctx=%d vision=%t tools=%t\n",
					card.ID, card.DisplayName, card.ContextWindowTokens, card.Vision, card.FunctionCall)
			}
			return nil
		},
	}

	chatCmd := &cobra.Command{
		Use:   "chat [prompt]",
		Short: "Send a prompt and stream the response to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := resolveRuntime()
			if err != nil {
				return err
			}
			return runChat(rt, args[0])
		},
	}
	chatCmd.Flags().StringVar(&modelID, "model", "", "model id (defaults to the first catalog entry)")
	chatCmd.Flags().BoolVar(&noStream, "no-stream", false, "request a blocking completion instead of a live stream")

	rootCmd.AddCommand(modelsCmd, chatCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// resolveRuntime maps the config file and flags onto the dispatch table.
func resolveRuntime() (runtime.Runtime, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	id := providerID
	if id == "" {
		id = cfg.Default
	}
	if id == "" {
		return nil, fmt.Errorf("no provider selected: pass --provider or set 'default' in %s (known: %v)", configPath, relay.Providers())
	}

	options := relay.Options{}
	if provider, ok := cfg.Provider(id); ok {
		options.APIKey = provider.APIKey
		options.BaseURL = provider.BaseURL
		options.Debug = runtime.DebugOptions{Enabled: provider.Debug, Dir: provider.DebugDir}
	}

	return relay.New(id, options)
}

func runChat(rt runtime.Runtime, prompt string) error {
	model := modelID
	if model == "" {
		catalog := rt.Models()
		if len(catalog) == 0 {
			return fmt.Errorf("no model given and the provider catalog is empty")
		}
		model = catalog[0].ID
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	payload := runtime.ChatStreamPayload{
		Model: model,
		Messages: []runtime.Message{
			{Role: runtime.RoleUser, Content: prompt},
		},
	}
	if noStream {
		stream := false
		payload.Stream = &stream
	}

	chunkStream, err := rt.Chat(ctx, payload)
	if err != nil {
		return err
	}

	for chunk, iterErr := range chunkStream.Iter() {
		if iterErr != nil {
			fmt.Println()
			return iterErr
		}
		for _, choice := range chunk.Choices {
			fmt.Print(choice.Delta.Content)
		}
	}
	fmt.Println()
	return nil
}

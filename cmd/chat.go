package cmd

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/oztrk/careerbot/internal/dispatch"
	"github.com/oztrk/careerbot/internal/interview"
	"github.com/oztrk/careerbot/internal/logger"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"

	consoleUserID = "console"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Run an interactive quiz session in the terminal",
	Run: func(_ *cobra.Command, _ []string) {
		chat()
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func chat() {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	b, err := buildBot(ctx, config, logger)
	if err != nil {
		logger.Fatal("wiring the bot", zap.Error(err))
	}
	defer func() {
		if err := b.Close(); err != nil {
			logger.Error("closing the session store", zap.Error(err))
		}
	}()

	namePrompt := promptui.Prompt{
		Label:   "Your name",
		Default: "friend",
	}
	name, err := namePrompt.Run()
	if err != nil {
		logger.Fatal("reading name", zap.Error(err))
	}

	user := interview.User{ID: consoleUserID + ":" + strings.ToLower(name), DisplayName: name}

	fmt.Printf("Hi %s! Send %s to start the quiz, %s to browse questions, %s to cancel. Ctrl+D quits.\n",
		name, dispatch.CommandCareer, dispatch.CommandBrowse, dispatch.CommandCancel)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		text := scanner.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}

		for _, reply := range b.dispatcher.Handle(ctx, user, text) {
			fmt.Println(reply)
		}
	}

	if b.engine.Active(user) {
		confirm := promptui.Select{
			Label: "A quiz is still in progress. Abandon it?",
			Items: []string{PromptYes, PromptNo},
		}
		if _, answer, err := confirm.Run(); err == nil && answer == PromptYes {
			b.engine.Abandon(user)
		}
	}

	fmt.Println("Bye!")
}

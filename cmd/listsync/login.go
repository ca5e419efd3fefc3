package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/kwestin/listsync/internal/cache"
	"github.com/kwestin/listsync/internal/config"
	"github.com/kwestin/listsync/internal/remote"
)

var loginCmd = &cobra.Command{
	Use:     "login",
	GroupID: "sync",
	Short:   "Connect this device to a sync account",
	Long: `Configure the remote store and account for this device.

Prompts for the server URL, user id, and token; pass --url, --user, and
--token to skip the prompts. Credentials are verified against the server
and then saved to the configuration file. Run 'listsync sync' afterwards
to pull existing data.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		serverURL, _ := cmd.Flags().GetString("url")
		userID, _ := cmd.Flags().GetString("user")
		token, _ := cmd.Flags().GetString("token")

		if serverURL == "" || userID == "" {
			var err error
			serverURL, userID, token, err = promptAccount(cfg, serverURL, userID, token)
			if err != nil {
				fatal("%v", err)
			}
		}

		if err := verifyAccount(serverURL, token, userID); err != nil {
			if remote.IsAuthError(err) {
				fatal("server rejected the token: %v", err)
			}
			keep := false
			confirm := huh.NewConfirm().
				Title("Could not reach the server").
				Description(fmt.Sprintf("%v\nSave the account anyway and sync later?", err)).
				Value(&keep)
			if runErr := confirm.Run(); runErr != nil || !keep {
				fatal("login aborted: %v", err)
			}
		}

		cfg.Remote = config.Remote{URL: serverURL, Token: token, UserID: userID}
		if err := config.Save(configPath, cfg); err != nil {
			fatal("%v", err)
		}
		ok(fmt.Sprintf("Signed in as %s on %s", userID, serverURL))
		fmt.Println(mutedStyle.Render("Run 'listsync sync' to reconcile with the server."))
	},
}

func promptAccount(cfg *config.Config, serverURL, userID, token string) (string, string, string, error) {
	if serverURL == "" {
		serverURL = cfg.Remote.URL
	}
	if userID == "" {
		userID = cfg.Remote.UserID
	}
	if token == "" {
		token = cfg.Remote.Token
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Server URL").
				Description("Base URL of the sync service").
				Placeholder("http://localhost:8080").
				Value(&serverURL).
				Validate(validateURL),
			huh.NewInput().
				Title("User ID").
				Description("The account all your devices share").
				Value(&userID).
				Validate(validateRequired("User ID")),
			huh.NewInput().
				Title("Token").
				Description("Bearer token; leave empty for an open server").
				EchoMode(huh.EchoModePassword).
				Value(&token),
		),
	)
	if err := form.Run(); err != nil {
		return "", "", "", err
	}
	return strings.TrimSpace(serverURL), strings.TrimSpace(userID), strings.TrimSpace(token), nil
}

func validateRequired(name string) func(string) error {
	return func(v string) error {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
}

func validateURL(v string) error {
	parsed, err := url.Parse(strings.TrimSpace(v))
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return errors.New("enter a full URL like http://host:port")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return errors.New("scheme must be http or https")
	}
	return nil
}

// verifyAccount makes one authenticated read against the store.
func verifyAccount(serverURL, token, userID string) error {
	client := remote.NewClient(serverURL, token, userID, log.New(io.Discard, "", 0))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := client.FetchLists(ctx, userID)
	return err
}

var logoutCmd = &cobra.Command{
	Use:     "logout",
	GroupID: "sync",
	Short:   "Disconnect this device from its sync account",
	Long: `Remove the stored account. Local data stays on this device unless
--purge is given, which also empties the local cache.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		if !cfg.SignedIn() {
			fmt.Println(mutedStyle.Render("Not signed in."))
			return
		}

		purge, _ := cmd.Flags().GetBool("purge")
		cfg.Remote = config.Remote{}
		if err := config.Save(configPath, cfg); err != nil {
			fatal("%v", err)
		}

		if purge {
			ca, err := cache.Open(cfg.CachePath())
			if err != nil {
				fatal("%v", err)
			}
			defer ca.Close()
			if err := ca.Clear(context.Background()); err != nil {
				fatal("%v", err)
			}
			ok("Signed out and cleared local data")
			return
		}
		ok("Signed out; local data kept")
	},
}

func init() {
	loginCmd.Flags().String("url", "", "Server URL (skips the prompt)")
	loginCmd.Flags().String("user", "", "User id (skips the prompt)")
	loginCmd.Flags().String("token", "", "Bearer token (skips the prompt)")
	logoutCmd.Flags().Bool("purge", false, "Also delete the local cache")
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}

package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/credvault/credvault/internal/models"
	"github.com/credvault/credvault/internal/passgen"
)

var strengthLabels = [...]string{"very weak", "weak", "fair", "good", "strong"}

func (a *App) listCredentials(ctx context.Context) {
	session, _ := a.currentSession()
	if session == nil {
		fmt.Println("Open a vault first.")
		return
	}

	_, data, err := session.Data(ctx)
	if err != nil {
		printVaultError(err)
		return
	}
	if len(data.Credentials) == 0 {
		fmt.Println("Vault is empty. Use 'add' to store a credential.")
		return
	}
	for _, c := range data.Credentials {
		category := c.Category
		if category == "" {
			category = "-"
		}
		fmt.Printf("%s  %-24s %-20s %s\n", c.ID, c.Title, c.Username, category)
	}
}

func (a *App) showCredential(ctx context.Context, args []string) {
	session, _ := a.currentSession()
	if session == nil {
		fmt.Println("Open a vault first.")
		return
	}
	if len(args) == 0 {
		fmt.Println("Usage: show <id>")
		return
	}

	_, data, err := session.Data(ctx)
	if err != nil {
		printVaultError(err)
		return
	}

	c := findCredential(data, args[0])
	if c == nil {
		fmt.Println("Not found.")
		return
	}

	fmt.Println("Title:     ", c.Title)
	fmt.Println("Username:  ", c.Username)
	fmt.Println("Password:  ", c.Password)
	if c.URL != "" {
		fmt.Println("URL:       ", c.URL)
	}
	if c.Notes != "" {
		fmt.Println("Notes:     ", c.Notes)
	}
	if c.Category != "" {
		fmt.Println("Category:  ", c.Category)
	}
	if len(c.Tags) > 0 {
		fmt.Println("Tags:      ", strings.Join(c.Tags, ", "))
	}
	fmt.Println("Created:   ", c.CreatedAt.Local().Format(time.RFC1123))
	fmt.Println("Modified:  ", c.LastModified.Local().Format(time.RFC1123))
}

func (a *App) addCredential(ctx context.Context) {
	session, _ := a.currentSession()
	if session == nil {
		fmt.Println("Open a vault first.")
		return
	}

	_, data, err := session.Data(ctx)
	if err != nil {
		printVaultError(err)
		return
	}

	in := models.CredentialInput{}
	if in.Title, err = GetSimpleText(a.reader, "Title", os.Stdout); err != nil {
		fmt.Println("Error:", err)
		return
	}
	if in.Username, err = GetSimpleText(a.reader, "Username", os.Stdout); err != nil {
		fmt.Println("Error:", err)
		return
	}
	if in.Password, err = a.promptNewPassword(); err != nil {
		fmt.Println("Error:", err)
		return
	}
	if in.URL, err = GetOptionalText(a.reader, "URL", "", os.Stdout); err != nil {
		fmt.Println("Error:", err)
		return
	}
	if in.Notes, err = GetOptionalText(a.reader, "Notes", "", os.Stdout); err != nil {
		fmt.Println("Error:", err)
		return
	}
	defaultCat := data.Settings.DefaultCategory
	if in.Category, err = GetOptionalText(a.reader, "Category", defaultCat, os.Stdout); err != nil {
		fmt.Println("Error:", err)
		return
	}

	created, err := session.AddCredential(ctx, in)
	if err != nil {
		printVaultError(err)
		return
	}
	fmt.Println("Credential stored:", created.ID)
}

func (a *App) editCredential(ctx context.Context, args []string) {
	session, _ := a.currentSession()
	if session == nil {
		fmt.Println("Open a vault first.")
		return
	}
	if len(args) == 0 {
		fmt.Println("Usage: edit <id>")
		return
	}

	_, data, err := session.Data(ctx)
	if err != nil {
		printVaultError(err)
		return
	}
	current := findCredential(data, args[0])
	if current == nil {
		fmt.Println("Not found.")
		return
	}

	patch := models.CredentialPatch{}
	title, err := GetOptionalText(a.reader, "Title", current.Title, os.Stdout)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	username, err := GetOptionalText(a.reader, "Username", current.Username, os.Stdout)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	url, err := GetOptionalText(a.reader, "URL", current.URL, os.Stdout)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	notes, err := GetOptionalText(a.reader, "Notes", current.Notes, os.Stdout)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	category, err := GetOptionalText(a.reader, "Category", current.Category, os.Stdout)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	patch.Title = &title
	patch.Username = &username
	patch.URL = &url
	patch.Notes = &notes
	patch.Category = &category

	change, err := GetConfirm(a.reader, "Change the password?", os.Stdout)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	if change {
		password, err := a.promptNewPassword()
		if err != nil {
			fmt.Println("Error:", err)
			return
		}
		patch.Password = &password
	}

	if _, err := session.UpdateCredential(ctx, current.ID, patch); err != nil {
		printVaultError(err)
		return
	}
	fmt.Println("Credential updated.")
}

func (a *App) deleteCredential(ctx context.Context, args []string) {
	session, _ := a.currentSession()
	if session == nil {
		fmt.Println("Open a vault first.")
		return
	}
	if len(args) == 0 {
		fmt.Println("Usage: rm <id>")
		return
	}

	ok, err := GetConfirm(a.reader, "Delete credential "+args[0]+"?", os.Stdout)
	if err != nil || !ok {
		fmt.Println("Canceled.")
		return
	}

	if err := session.DeleteCredential(ctx, args[0]); err != nil {
		printVaultError(err)
		return
	}
	fmt.Println("Credential deleted.")
}

func (a *App) vaultSettings(ctx context.Context) {
	session, _ := a.currentSession()
	if session == nil {
		fmt.Println("Open a vault first.")
		return
	}

	_, data, err := session.Data(ctx)
	if err != nil {
		printVaultError(err)
		return
	}
	settings := data.Settings

	fmt.Println("Auto-lock timeout:", settings.AutoLockTimeout)
	fmt.Println("Categories:       ", strings.Join(settings.Categories, ", "))
	fmt.Println("Default category: ", settings.DefaultCategory)

	change, err := GetConfirm(a.reader, "Change settings?", os.Stdout)
	if err != nil || !change {
		return
	}

	patch := models.VaultSettingsPatch{}

	timeoutText, err := GetOptionalText(a.reader, "Auto-lock timeout (e.g. 5m, 0 to disable)", settings.AutoLockTimeout.String(), os.Stdout)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	timeout, err := time.ParseDuration(timeoutText)
	if err != nil {
		fmt.Println("Invalid duration:", timeoutText)
		return
	}
	patch.AutoLockTimeout = &timeout

	catText, err := GetOptionalText(a.reader, "Categories (comma-separated)", strings.Join(settings.Categories, ","), os.Stdout)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	categories := splitCSV(catText)
	patch.Categories = &categories

	defaultCat, err := GetOptionalText(a.reader, "Default category", settings.DefaultCategory, os.Stdout)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	patch.DefaultCategory = &defaultCat

	if _, err := session.UpdateSettings(ctx, patch); err != nil {
		printVaultError(err)
		return
	}

	a.mu.Lock()
	a.autoLock = timeout
	a.mu.Unlock()
	fmt.Println("Settings saved.")
}

const defaultGenLength = 16

func (a *App) generatePassword(args []string) {
	length := defaultGenLength
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			fmt.Println("Usage: gen [length]")
			return
		}
		length = n
	}

	password, err := passgen.Generate(length, passgen.AllCharsets())
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	fmt.Printf("%s  (%s)\n", password, strengthLabels[passgen.Strength(password)])
}

// promptNewPassword asks for a password, offering to generate one instead.
func (a *App) promptNewPassword() (string, error) {
	generate, err := GetConfirm(a.reader, "Generate a random password?", os.Stdout)
	if err != nil {
		return "", err
	}
	if generate {
		password, err := passgen.Generate(defaultGenLength, passgen.AllCharsets())
		if err != nil {
			return "", err
		}
		fmt.Println("Generated:", password)
		return password, nil
	}

	pw, err := GetPassword("Password", os.Stdout)
	if err != nil {
		return "", err
	}
	fmt.Println("Strength:", strengthLabels[passgen.Strength(string(pw))])
	return string(pw), nil
}

func findCredential(data *models.VaultData, id string) *models.Credential {
	for i := range data.Credentials {
		if data.Credentials[i].ID == id {
			return &data.Credentials[i]
		}
	}
	return nil
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

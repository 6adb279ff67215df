// package formatter renders user records as JSON, CSV, Markdown and plain or styled text
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/desertthunder/airwaves/internal/models"
)

// Format names accepted by [Export].
const (
	FormatJSON     = "json"
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatCSV      = "csv"
)

// ToJSON marshals a record, indented when pretty is set.
func ToJSON(record map[string]any, pretty bool) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if pretty {
		data, err = json.MarshalIndent(record, "", "  ")
	} else {
		data, err = json.Marshal(record)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return data, nil
}

// ExportToCSV renders profiles as a leaderboard with columns: Username, Role, Points, Favorites, ListeningMinutes
//
// Rows are ordered by points, highest first, then by username.
func ExportToCSV(profiles []*models.UserProfile) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Username", "Role", "Points", "Favorites", "ListeningMinutes"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, p := range Leaderboard(profiles) {
		record := []string{
			p.Username,
			p.Role,
			strconv.Itoa(p.Points),
			strconv.Itoa(len(p.Favorites)),
			strconv.Itoa(p.ListeningMinutes),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// Leaderboard returns a copy of profiles sorted by points descending, then username.
func Leaderboard(profiles []*models.UserProfile) []*models.UserProfile {
	sorted := append([]*models.UserProfile(nil), profiles...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Points != sorted[j].Points {
			return sorted[i].Points > sorted[j].Points
		}
		return sorted[i].Username < sorted[j].Username
	})
	return sorted
}

// ExportToMarkdown renders one profile as a Markdown document
func ExportToMarkdown(p *models.UserProfile) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", p.Username))
	buf.WriteString(fmt.Sprintf("**Role**: %s\n", p.Role))
	buf.WriteString(fmt.Sprintf("**Points**: %d\n", p.Points))
	buf.WriteString(fmt.Sprintf("**Listening**: %s\n\n", FormatMinutes(p.ListeningMinutes)))

	buf.WriteString("## Favorite Stations\n\n")
	if len(p.Favorites) == 0 {
		buf.WriteString("_none_\n")
	}
	for i, station := range p.Favorites {
		buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, station))
	}

	if len(p.Holdings) > 0 {
		buf.WriteString("\n## Holdings\n\n| Ticker | Shares |\n|---|---|\n")
		for _, ticker := range sortedKeys(p.Holdings) {
			buf.WriteString(fmt.Sprintf("| %s | %d |\n", ticker, p.Holdings[ticker]))
		}
	}

	if len(p.Bets) > 0 {
		buf.WriteString("\n## Bets\n\n")
		for _, bet := range p.Bets {
			buf.WriteString(fmt.Sprintf("- %d on %s\n", bet.Amount, bet.StationID))
		}
	}

	return buf.Bytes(), nil
}

// ExportToText renders one profile as plain text
func ExportToText(p *models.UserProfile) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("User: %s\n", p.Username))
	buf.WriteString(fmt.Sprintf("Role: %s\n", p.Role))
	buf.WriteString(fmt.Sprintf("Points: %d\n", p.Points))
	buf.WriteString(fmt.Sprintf("Listening: %s\n", FormatMinutes(p.ListeningMinutes)))
	if len(p.Favorites) > 0 {
		buf.WriteString(fmt.Sprintf("Favorites: %s\n", strings.Join(p.Favorites, ", ")))
	}

	return buf.Bytes(), nil
}

// Export renders record in the named format. CSV renders a single-row leaderboard.
func Export(record map[string]any, format string) ([]byte, error) {
	if format == FormatJSON {
		return ToJSON(record, true)
	}

	p, err := models.ProfileFromRecord(record)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatText:
		return ExportToText(p)
	case FormatMarkdown:
		return ExportToMarkdown(p)
	case FormatCSV:
		return ExportToCSV([]*models.UserProfile{p})
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// WriteExport writes rendered data to path, creating or truncating it.
func WriteExport(data []byte, path string) error {
	if path == "" {
		return fmt.Errorf("empty output path")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}

// FormatMinutes renders a minute count as "1h 05m" or "42m".
func FormatMinutes(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dh %02dm", minutes/60, minutes%60)
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

package clientcli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shareustc/shareustc"
)

// Formatter formats results for output.
type Formatter interface {
	FormatIdentity(w io.Writer, id shareustc.Identity) error
	FormatTokenPair(w io.Writer, pair shareustc.TokenPair) error
	FormatCredential(w io.Writer, cred *UploadCredential) error
	FormatPresign(w io.Writer, result *PresignResult) error
	FormatDelete(w io.Writer, results []DeleteResult) error
	FormatAuditPage(w io.Writer, page *shareustc.AuditPage) error
	FormatError(w io.Writer, err error) error
}

// NewFormatter returns the appropriate formatter based on flags.
func NewFormatter(jsonOutput, quiet bool) Formatter {
	if jsonOutput {
		return &JSONFormatter{}
	}
	return &HumanFormatter{Quiet: quiet}
}

// HumanFormatter outputs human-readable text. Secrets are masked.
type HumanFormatter struct {
	Quiet bool
}

func (f *HumanFormatter) FormatIdentity(w io.Writer, id shareustc.Identity) error {
	_, _ = fmt.Fprintf(w, "ID:       %s\n", id.ID)
	_, _ = fmt.Fprintf(w, "Username: %s\n", id.Username)
	_, _ = fmt.Fprintf(w, "Role:     %s\n", id.Role)
	_, _ = fmt.Fprintf(w, "Verified: %t\n", id.IsVerified)
	return nil
}

func (f *HumanFormatter) FormatTokenPair(w io.Writer, pair shareustc.TokenPair) error {
	if f.Quiet {
		return nil
	}
	_, _ = fmt.Fprintf(w, "Access token:  %s\n", maskSecret(pair.AccessToken))
	_, _ = fmt.Fprintf(w, "Refresh token: %s\n", maskSecret(pair.RefreshToken))
	_, _ = fmt.Fprintf(w, "Expires in:    %s\n", time.Duration(pair.ExpiresIn)*time.Second)
	return nil
}

func (f *HumanFormatter) FormatCredential(w io.Writer, cred *UploadCredential) error {
	_, _ = fmt.Fprintf(w, "Access key:  %s\n", cred.AccessKeyID)
	_, _ = fmt.Fprintf(w, "Secret:      %s\n", maskSecret(cred.AccessKeySecret))
	_, _ = fmt.Fprintf(w, "Token:       %s\n", maskSecret(cred.SecurityToken))
	_, _ = fmt.Fprintf(w, "Expiration:  %s\n", cred.Expiration)
	_, _ = fmt.Fprintf(w, "Bucket:      %s (%s)\n", cred.Bucket, cred.Region)
	return nil
}

// FormatPresign prints the bare URL so it can be piped to a downloader.
func (f *HumanFormatter) FormatPresign(w io.Writer, result *PresignResult) error {
	_, _ = fmt.Fprintln(w, result.URL)
	return nil
}

func (f *HumanFormatter) FormatDelete(w io.Writer, results []DeleteResult) error {
	for i := range results {
		r := &results[i]
		if r.Err != nil {
			_, _ = fmt.Fprintf(w, "Error: %s - %v\n", r.Key, r.Err)
			continue
		}
		if !f.Quiet {
			_, _ = fmt.Fprintf(w, "Deleted: %s\n", r.Key)
		}
	}
	return nil
}

func (f *HumanFormatter) FormatAuditPage(w io.Writer, page *shareustc.AuditPage) error {
	if len(page.Items) == 0 {
		_, _ = fmt.Fprintln(w, "No audit entries found")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "TIME\tUSER\tACTION\tTARGET\tDETAIL")
	for i := range page.Items {
		e := &page.Items[i]
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			e.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
			e.Username,
			e.Action,
			truncate(e.Target, 60),
			e.Detail,
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if !f.Quiet {
		_, _ = fmt.Fprintf(w, "\n%d entr%s\n", len(page.Items), plural(len(page.Items)))
	}
	if page.NextCursor != "" {
		_, _ = fmt.Fprintf(w, "Next page: use --cursor %q\n", page.NextCursor)
	}
	return nil
}

func (f *HumanFormatter) FormatError(w io.Writer, err error) error {
	_, _ = fmt.Fprintf(w, "Error: %v\n", err)
	return nil
}

// JSONFormatter outputs JSON.
type JSONFormatter struct{}

func (f *JSONFormatter) FormatIdentity(w io.Writer, id shareustc.Identity) error {
	return writeJSON(w, id)
}

func (f *JSONFormatter) FormatTokenPair(w io.Writer, pair shareustc.TokenPair) error {
	return writeJSON(w, pair)
}

func (f *JSONFormatter) FormatCredential(w io.Writer, cred *UploadCredential) error {
	return writeJSON(w, cred)
}

func (f *JSONFormatter) FormatPresign(w io.Writer, result *PresignResult) error {
	return writeJSON(w, result)
}

// FormatDelete formats delete results as JSON, with errors as strings.
func (f *JSONFormatter) FormatDelete(w io.Writer, results []DeleteResult) error {
	type jsonResult struct {
		Key     string `json:"key"`
		Deleted bool   `json:"deleted"`
		Error   string `json:"error,omitempty"`
	}

	output := struct {
		Results []jsonResult `json:"results"`
	}{
		Results: make([]jsonResult, len(results)),
	}

	for i, r := range results {
		jr := jsonResult{Key: r.Key, Deleted: r.Deleted}
		if r.Err != nil {
			jr.Error = r.Err.Error()
		}
		output.Results[i] = jr
	}

	return writeJSON(w, output)
}

func (f *JSONFormatter) FormatAuditPage(w io.Writer, page *shareustc.AuditPage) error {
	return writeJSON(w, page)
}

func (f *JSONFormatter) FormatError(w io.Writer, err error) error {
	output := struct {
		Error string `json:"error"`
	}{
		Error: err.Error(),
	}
	return writeJSON(w, output)
}

// writeJSON writes a value as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// maskSecret shows only the first and last four characters.
func maskSecret(secret string) string {
	if secret == "" {
		return "(not set)"
	}
	if len(secret) <= 8 {
		return "********"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func plural(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}

// ProfileLine renders one profile row for listings; the default is starred.
func ProfileLine(p Profile) string {
	marker := " "
	if p.Default {
		marker = "*"
	}
	return strings.Join([]string{marker, p.Name, p.Endpoint}, " ")
}

package controllers

import (
	"fmt"
	"io"
	"sync"
)

// Reporter writes the human readable sync tree to the console
type Reporter struct {
	mu    sync.Mutex
	out   io.Writer
	color bool
}

// NewReporter creates a reporter. color enables the red failure marker.
func NewReporter(out io.Writer, color bool) *Reporter {
	return &Reporter{out: out, color: color}
}

func (r *Reporter) errorPrefix() string {
	if r.color {
		return "\033[31m⨯\033[0m"
	}
	return "⨯"
}

func (r *Reporter) printf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, format, args...)
}

// Header opens the sync tree
func (r *Reporter) Header() {
	r.printf("\n╭Shoko Relay Watched Sync\n")
}

// Generating announces the Shoko watched list download in import mode
func (r *Reporter) Generating() {
	r.printf("├─Generating: Shoko Watched Episode List...\n")
}

// Failure reports a problem outside any library, such as an unresolved home user
func (r *Reporter) Failure(err error) {
	r.printf("%sFailed: %v\n", r.errorPrefix(), err)
}

// Prompt asks whether to import into identity
func (r *Reporter) Prompt(identity string) {
	r.printf("├──Would you like to import Shoko watched states to: %s (Y/N) ", identity)
}

// InvalidAnswer is shown when the prompt answer is neither Y nor N
func (r *Reporter) InvalidAnswer() {
	r.printf("%s───Please enter \"Y\" or \"N\"\n", r.errorPrefix())
}

// Skipped reports an identity declined at the prompt
func (r *Reporter) Skipped(identity string) {
	r.printf("├──Skipping: %s\n", identity)
}

// ServerFailed reports that the Plex server could not be reached
func (r *Reporter) ServerFailed(err error) {
	r.printf("╰%sFailed: Server Name Not Found (%v)\n", r.errorPrefix(), err)
}

// Querying opens a library branch
func (r *Reporter) Querying(identity, server, library string) {
	r.printf("├┬Querying: %s @ %s/%s\n", identity, server, library)
}

// LibraryFailed reports a library that could not be queried
func (r *Reporter) LibraryFailed(err error) {
	r.printf("│%s─Failed %v\n", r.errorPrefix(), err)
}

// Relaying reports a Plex watched state sent to Shoko
func (r *Reporter) Relaying(key, title string) {
	r.printf("│├─Relaying: %s → %s\n", key, title)
}

// Importing reports a Shoko watched state sent to Plex
func (r *Reporter) Importing(filename string) {
	r.printf("│├─Importing: %s\n", filename)
}

// Unmatched reports a Plex file Shoko does not know about
func (r *Reporter) Unmatched(key string) {
	r.printf("│├%s─Failed: Make sure that \"%s\" is matched by Shoko\n", r.errorPrefix(), key)
}

// ItemFailed reports an unexpected error for a single file
func (r *Reporter) ItemFailed(err error) {
	r.printf("│├%s─Failed: %v\n", r.errorPrefix(), err)
}

// Finished closes a library branch
func (r *Reporter) Finished() {
	r.printf("│╰─Finished!\n")
}

// Complete closes the sync tree
func (r *Reporter) Complete() {
	r.printf("╰Watched Sync Complete\n")
}

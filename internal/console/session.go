// Package console implements the interactive route prompt.
package console

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"metronav.onebusaway.org/internal/models"
)

// Navigator answers the questions the prompt asks.
type Navigator interface {
	ResolveStation(input string) (string, error)
	FindRoute(from, to string, disabled []string) (models.RouteResponse, error)
	StationEntries() []models.StationEntry
}

// Session reads queries from In and writes results to Out until the user
// declines another route or input ends.
type Session struct {
	Nav  Navigator
	In   io.Reader
	Out  io.Writer
	JSON bool
}

// ParseStationList splits comma separated input, trimming blanks.
func ParseStationList(input string) []string {
	var out []string
	for _, part := range strings.Split(input, ",") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// FilterDisabled resolves each disabled entry, returning the known station
// identifiers and the inputs that could not be resolved.
func FilterDisabled(nav Navigator, names []string) (known, invalid []string) {
	for _, name := range names {
		id, err := nav.ResolveStation(name)
		if err != nil {
			invalid = append(invalid, name)
			continue
		}
		known = append(known, id)
	}
	return known, invalid
}

type inputLine struct {
	text string
	err  error
}

// readLines scans r on its own goroutine so that a pending read never holds
// up cancellation. The channel is closed at end of input. A goroutine blocked
// inside Read stays blocked until the reader returns.
func readLines(ctx context.Context, r io.Reader) <-chan inputLine {
	ch := make(chan inputLine)
	go func() {
		defer close(ch)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case ch <- inputLine{text: scanner.Text()}:
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			select {
			case ch <- inputLine{err: err}:
			case <-ctx.Done():
			}
		}
	}()
	return ch
}

// Run drives the prompt loop. It returns nil at end of input and ctx.Err()
// when ctx is cancelled, even while waiting for a line.
func (s *Session) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := readLines(ctx, s.In)
	readLine := func(prompt string) (string, error) {
		fmt.Fprint(s.Out, prompt)
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case l, ok := <-lines:
			if !ok {
				return "", io.EOF
			}
			if l.err != nil {
				return "", l.err
			}
			return strings.TrimSpace(l.text), nil
		}
	}

	if err := models.WriteStationList(s.Out, s.Nav.StationEntries()); err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, err := readLine("\nEnter the starting station name (or @lat,lon): ")
		if err != nil {
			return endOfInput(err)
		}
		start, err := s.Nav.ResolveStation(line)
		if err != nil {
			fmt.Fprintln(s.Out, "Invalid starting station. Please choose from the list above.")
			continue
		}

		line, err = readLine("Enter the destination station name (or @lat,lon): ")
		if err != nil {
			return endOfInput(err)
		}
		end, err := s.Nav.ResolveStation(line)
		if err != nil {
			fmt.Fprintln(s.Out, "Invalid destination station. Please choose from the list above.")
			continue
		}

		line, err = readLine("Enter disabled station names, separated by commas (leave blank if none): ")
		if err != nil {
			return endOfInput(err)
		}
		disabled, invalid := FilterDisabled(s.Nav, ParseStationList(line))
		if len(invalid) > 0 {
			fmt.Fprintf(s.Out, "Warning: Invalid disabled stations found and ignored: %s\n", strings.Join(invalid, ", "))
		}

		if slices.Contains(disabled, start) {
			fmt.Fprintln(s.Out, "Starting station is disabled. Please choose another station.")
			continue
		}
		if slices.Contains(disabled, end) {
			fmt.Fprintln(s.Out, "Destination station is disabled. Please choose another station.")
			continue
		}

		if err := s.report(start, end, disabled); err != nil {
			fmt.Fprintf(s.Out, "An error occurred: %v\n", err)
		}

		line, err = readLine("\nDo you want to find another route? (yes/no): ")
		if err != nil {
			return endOfInput(err)
		}
		if strings.ToLower(line) != "yes" {
			return nil
		}
	}
}

func endOfInput(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (s *Session) report(start, end string, disabled []string) error {
	resp, err := s.Nav.FindRoute(start, end, disabled)
	if err != nil {
		return err
	}
	if s.JSON {
		enc := json.NewEncoder(s.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	return resp.WriteText(s.Out)
}

// Once answers a single query without prompting. Input errors are returned
// rather than printed so callers can set an exit status.
func (s *Session) Once(from, to, disabledInput string) error {
	start, err := s.Nav.ResolveStation(from)
	if err != nil {
		return fmt.Errorf("invalid starting station: %w", err)
	}
	end, err := s.Nav.ResolveStation(to)
	if err != nil {
		return fmt.Errorf("invalid destination station: %w", err)
	}

	disabled, invalid := FilterDisabled(s.Nav, ParseStationList(disabledInput))
	if len(invalid) > 0 {
		fmt.Fprintf(s.Out, "Warning: Invalid disabled stations found and ignored: %s\n", strings.Join(invalid, ", "))
	}
	if slices.Contains(disabled, start) {
		return errors.New("starting station is disabled")
	}
	if slices.Contains(disabled, end) {
		return errors.New("destination station is disabled")
	}
	return s.report(start, end, disabled)
}

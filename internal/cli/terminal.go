// Package cli is the interactive terminal front end: the shop menus for
// customers and salespersons, and the articles query menu.
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fjod/go_shop/internal/domain"
	"github.com/fjod/go_shop/internal/pagination"
)

// Terminal reads one answer per line and writes prompts and results.
type Terminal struct {
	in  *bufio.Scanner
	out io.Writer
}

func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: bufio.NewScanner(in), out: out}
}

func (t *Terminal) printf(format string, args ...any) {
	fmt.Fprintf(t.out, format, args...)
}

func (t *Terminal) println(args ...any) {
	fmt.Fprintln(t.out, args...)
}

// prompt returns the trimmed answer, or io.EOF once input is exhausted.
func (t *Terminal) prompt(label string) (string, error) {
	t.printf("%s", label)
	if !t.in.Scan() {
		if err := t.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(t.in.Text()), nil
}

func (t *Terminal) promptInt(label string) (int64, bool, error) {
	s, err := t.prompt(label)
	if err != nil {
		return 0, false, err
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		t.println("Please enter a whole number.")
		return 0, false, nil
	}
	return n, true, nil
}

func (t *Terminal) confirm(label string) (bool, error) {
	s, err := t.prompt(label + " (y/n): ")
	if err != nil {
		return false, err
	}
	return strings.EqualFold(s, "y"), nil
}

func (t *Terminal) header(title string) {
	t.printf("\n=== %s ===\n", title)
}

// reportError prints a user-facing message for err. Unexpected errors are
// returned so the caller can stop.
func (t *Terminal) reportError(err error) error {
	var stock *domain.InsufficientStockError

	switch {
	case errors.As(err, &stock):
		t.printf("Insufficient stock for product %d: requested %d, available %d.\n",
			stock.ProductID, stock.Requested, stock.Available)
	case errors.Is(err, domain.ErrEmptyCart):
		t.println("Your cart is empty.")
	case errors.Is(err, domain.ErrInvalidQuantity):
		t.println("Quantity must be positive.")
	case errors.Is(err, domain.ErrInvalidValue):
		t.printf("Invalid input: %v\n", err)
	case errors.Is(err, domain.ErrNotFound):
		t.println("Not found.")
	case errors.Is(err, domain.ErrAlreadyExists):
		t.println("Already registered. Please login or use a different email.")
	case errors.Is(err, domain.ErrUnauthorized):
		t.println("Invalid user id or password.")
	case errors.Is(err, domain.ErrConflict):
		t.println("Someone else changed this at the same time. Please try again.")
	default:
		return err
	}
	return nil
}

// browse pages through items five at a time. Entries are numbered across
// pages; choosing a number calls open with that item.
func browse[T any](t *Terminal, items []T, render func(n int, item T), open func(item T) error) error {
	page := 1
	for {
		p := pagination.Paginate(items, page, pagination.PageSize)

		t.printf("\n--- Page %d of %d ---\n", p.Page, p.TotalPages)
		for i, item := range p.Items {
			render(p.Offset+i+1, item)
		}

		choice, err := t.prompt("\nOptions: [N]ext, [P]rev, [number] to select, [B]ack: ")
		if err != nil {
			return err
		}

		switch strings.ToLower(choice) {
		case "n":
			if p.HasNext() {
				page++
			}
		case "p":
			if p.HasPrev() {
				page--
			}
		case "b":
			return nil
		default:
			n, err := strconv.Atoi(choice)
			if err != nil || n < 1 || n > len(items) {
				t.println("Invalid selection.")
				continue
			}
			if err := open(items[n-1]); err != nil {
				return err
			}
		}
	}
}

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// errDeclined aborts a command the user chose not to continue; it exits 0.
var errDeclined = errors.New("declined")

// confirm asks question until it reads y or n. End of input means no.
func confirm(in io.Reader, out io.Writer, question string) (bool, error) {
	sc := bufio.NewScanner(in)
	for {
		fmt.Fprintf(out, "%s (y/n) ", question)
		if !sc.Scan() {
			fmt.Fprintln(out)
			return false, sc.Err()
		}
		switch strings.ToLower(strings.TrimSpace(sc.Text())) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
	}
}

// Command pitstop runs races and quizzes from the terminal and manages the
// database schema.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

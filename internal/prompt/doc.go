// Package prompt offers an interactive terminal loop that asks for new
// values of failing fields and revalidates until the form passes.
package prompt

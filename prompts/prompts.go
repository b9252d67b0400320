// Package prompts embeds the agent instruction files and exports them as strings.
package prompts

import _ "embed"

//go:embed joke.txt
var Joke string

//go:embed analyst.txt
var Analyst string

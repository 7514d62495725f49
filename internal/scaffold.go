package internal

import "github.com/starford/ghmd/internal/site"

type scaffoldFile struct {
	name    string
	content string
}

var scaffoldFiles = []scaffoldFile{
	{name: site.ConfigFileName, content: exampleConfig},
	{name: "hello-world.md", content: examplePost},
}

const exampleConfig = `# Blog metadata
title: "My Blog"
description: "Welcome to my blog"
author: "Your Name"

# Appearance
theme_light: "default_light"
theme_dark: "default_dark"
font_body: "system"
font_code: "system"

# Features
show_toc: true
toc_min_headings: 3
show_date: true
show_reading_time: true
sort_by_update: false
max_posts_per_index_page: 0
tags_as_link: true

# Output settings
base_url: "/"

# Dev server (ghmd serve / ghmd mcp)
app:
  log_level: info
  log_format: text
  http:
    port: 8080
  catalog:
    path: ":memory:"
`

const examplePost = `---
title: Hello World
date: 2025-01-01
description: My first blog post using ghmd
tags: [meta]
---

# Welcome to my blog!

This is my **first post** using ghmd.

## Getting Started

Edit this file or create new ` + "`.md`" + ` files in the ` + "`blog`" + ` folder.

## Features

- Write in Markdown
- Automatic syntax highlighting
- Table of contents generation
- Clean, responsive design

## Code Example

` + "```go" + `
func main() {
	fmt.Println("Hello from ghmd!")
}
` + "```" + `

Happy blogging!
`

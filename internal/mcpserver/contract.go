package mcpserver

// FrontmatterContract documents the post format ghmd understands. It is
// served by the get_frontmatter_contract tool and the ghmd://frontmatter
// resource.
const FrontmatterContract = `# ghmd Post Format

A post is a UTF-8 Markdown file ending in ` + "`.md`" + `. It may start with a YAML
frontmatter block fenced by ` + "`---`" + ` lines. Every key is optional.

` + "```" + `markdown
---
title: Scheduling in Go            # default: "My First Post"
date: 2024-03-01                   # YYYY-MM-DD; invalid dates leave the post undated
update: 2024-04-10                 # last revision, same format
description: One-line summary      # shown on index pages
author: Robin
tags: [go, runtime]                # list, or "go, runtime"
draft: false                       # true skips the post entirely
toc: true                          # overrides the site-wide show_toc
exclude_from_index: false          # true renders the page but hides it from indexes
template: post                     # post or page; anything else falls back to post
---

Body in Markdown.
` + "```" + `

## Rules

1. Malformed YAML frontmatter fails the whole build. Keep the fences on their
   own lines at the very top of the file.
2. Tags are kept as written. Their URL slug is lower-case with ` + "`c++ → cpp`" + `,
   ` + "`c# → csharp`" + ` and ` + "`.net → dotnet`" + ` substitutions.
3. ` + "`tags/<slug>.md`" + ` (no frontmatter needed) becomes the description
   shown on page 1 of that tag's index.
4. Headings h2 to h4 feed the table of contents. It appears when ` + "`toc`" + ` is
   set, or when the site enables it and the post has at least
   ` + "`toc_min_headings`" + ` headings.
5. Extensions: tables, task lists, ~~strikethrough~~, ==highlight==,
   footnotes, definition lists, autolinks, ` + "`{#id .class}`" + ` heading attributes and
   fenced code highlighting.
6. Images live next to posts (for example ` + "`images/`" + `); every non-Markdown file is
   copied to the output unchanged. Use the ` + "`add_image`" + ` tool to store one.
7. Standalone ` + "`.html`" + ` files are listed with the posts. Their title comes from
   ` + "`<title>`" + ` and their date from the file's modification time.
`

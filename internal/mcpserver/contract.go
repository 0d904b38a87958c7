package mcpserver

// FrontMatterContract describes how a markdown file's front matter becomes
// the properties of its remote page.
const FrontMatterContract = `# mdnotion Front Matter Contract

Each markdown file below the sync root becomes one page in the destination
database. Front matter controls that page's properties.

## Structure

` + "```" + `markdown
---
title: Human-readable title    # becomes the "Title" property
owner: platform-team           # becomes the "Owner" rich text property
created_at: 2025-01-15         # becomes "Created At"
---

Body text in standard Markdown.
` + "```" + `

## Rules

1. **The block is optional.** A file without ` + "`" + `---` + "`" + ` on its first line has no front matter.
   A block that is opened but never closed is an error and aborts the whole run.
2. **Keys become labels.** Each key is split into words (on ` + "`" + `_` + "`" + `, ` + "`" + `-` + "`" + `, spaces and
   camelCase boundaries) and title-cased: ` + "`" + `created_at` + "`" + ` and ` + "`" + `createdAt` + "`" + ` both map to ` + "`" + `Created At` + "`" + `.
3. **Title.** The key ` + "`" + `title` + "`" + ` maps to the page title. Without it the title is the file path.
4. **Path is reserved.** ` + "`" + `path` + "`" + ` is always overwritten with the file's path and maps to the
   ` + "`" + `URL` + "`" + ` property (base URL + path). That URL is the page's identity across runs.
5. **Values are text.** Every other key becomes a rich text property holding the value as written.
6. **Removed keys are cleared** on the remote page on the next run.

## Body

- Headings (levels 1 to 3), paragraphs, lists, to-dos, quotes, code fences, tables and
  dividers are supported. Deeper headings are written as level 3.
- Links are written as literal code-styled ` + "`" + `[text](url)` + "`" + ` text.
- Line breaks inside a paragraph are folded to spaces.
- Page content is rewritten whole, and only when the page's properties change.
  A body-only edit is picked up once a front matter value changes, or on every
  run when ` + "`" + `ledger.detect_body_changes` + "`" + ` is enabled.

## Example

` + "```" + `markdown
---
title: Deploy runbook
owner: platform-team
---

# Deploy runbook

1. Build the image.
2. Roll out with ` + "`" + `make deploy` + "`" + `.
` + "```" + `
`

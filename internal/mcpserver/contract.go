package mcpserver

// RecordFormatContract describes the record model and the backing file
// format for LLM consumers.
const RecordFormatContract = `# recordbook Record Format

Every record has exactly four fields:

| Field     | Type    | Rules                                              |
|-----------|---------|----------------------------------------------------|
| id        | integer | unique across the store, >= 0, cannot be edited     |
| name      | text    | required, no commas, no line breaks                |
| age       | integer | 0 to 200                                           |
| address   | text    | required, no commas, no line breaks                |

## Backing file

One record per line, fields joined by commas in the order
` + "`id,name,age,address`" + `, no header, no quoting. Lines that do not parse
are ignored when reading and kept as they are when the file is rewritten.

## Queries

` + "`find_records`" + ` and ` + "`delete_records`" + ` match a single field by exact text.
Numbers match only their plain decimal form: ` + "`id=7`" + ` matches, ` + "`id=07`" + ` does not.

## Example

` + "```" + `
1,Alice,30,1 Main St
2,Bob,25,Flat 4 High Street
` + "```" + `
`

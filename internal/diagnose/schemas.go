package diagnose

// Minimal contracts the shell depends on. Extra properties are allowed.
const bookSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["title", "description", "authors"],
  "properties": {
    "title":       {"type": "string"},
    "description": {"type": "string"},
    "authors":     {"type": "array", "items": {"type": "integer"}}
  }
}`

const authorSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["firstName", "lastName"],
  "properties": {
    "firstName":     {"type": "string"},
    "middleInitial": {"type": ["string", "null"]},
    "lastName":      {"type": "string"}
  }
}`

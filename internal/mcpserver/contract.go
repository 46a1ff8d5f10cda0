package mcpserver

// EventFormatContract describes the event fields LLM consumers must supply
// when creating or updating personal events.
const EventFormatContract = `# Almanac Event Format Contract

Almanac merges three kinds of events into one calendar. Only personal events
can be created, updated or deleted.

## Fields

| Field         | Required | Format                         | Notes                                   |
|---------------|----------|--------------------------------|-----------------------------------------|
| ` + "`" + `title` + "`" + `       | yes      | 1-200 characters               | Shown in the grid cell                  |
| ` + "`" + `date` + "`" + `        | yes      | ` + "`" + `YYYY-MM-DD` + "`" + `                   | Calendar day of the event               |
| ` + "`" + `time` + "`" + `        | yes      | ` + "`" + `HH:MM` + "`" + `, 24-hour clock        | Local start time                        |
| ` + "`" + `description` + "`" + ` | no       | free text                      |                                         |
| ` + "`" + `color` + "`" + `       | no       | hex, ` + "`" + `#rgb` + "`" + ` or ` + "`" + `#rrggbb` + "`" + `       | Defaults to ` + "`" + `#3b82f6` + "`" + `                  |

## Scopes

- ` + "`" + `personal` + "`" + ` - stored events owned by the user. Ids are UUIDs.
- ` + "`" + `national` + "`" + ` - public holidays of the configured country, id ` + "`" + `national-YYYY-MM-DD` + "`" + `,
  color ` + "`" + `#ef4444` + "`" + `. Read-only.
- ` + "`" + `worldwide` + "`" + ` - fixed observances such as Earth Day, id ` + "`" + `worldwide-YYYY-MM-DD` + "`" + `,
  color ` + "`" + `#10b981` + "`" + `. Read-only.

National and worldwide events are always shown at ` + "`" + `00:00` + "`" + `.

## Rules

1. Never try to update or delete an id starting with ` + "`" + `national-` + "`" + ` or ` + "`" + `worldwide-` + "`" + `.
2. Deleting an unknown id is not an error.
3. Use ` + "`" + `quick_add` + "`" + ` for phrases like "Dentist tomorrow 15:30"; a phrase without a time
   is scheduled at 09:00.
4. A grid cell shows at most three events; ` + "`" + `more` + "`" + ` counts the rest. Use ` + "`" + `events_on` + "`" + `
   to see all of them.

## Example

` + "```" + `json
{"title": "Standup", "date": "2024-03-04", "time": "09:00", "color": "#8b5cf6"}
` + "```" + `
`

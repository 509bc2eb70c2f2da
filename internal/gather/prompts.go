package gather

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Harshitk-cp/veritas/internal/domain"
)

const sqlPromptTemplate = `You are a SQL generator for a PostgreSQL database. Write ONE SELECT statement that answers the question below.

Rules:
- Output ONLY the SQL. No markdown, no explanation.
- SELECT statements only. Never modify data.
- Use ONLY the table and columns listed. Do not invent columns.
- Apply every filter listed.

Table: %s
Columns: %s
%s
Question: %s`

const repairPromptTemplate = `Your previous SQL for this question failed.

Error: %s

Write ONE corrected PostgreSQL SELECT statement. Output ONLY the SQL.

Table: %s
Columns: %s
%s
Question: %s`

const repairWithSQLTemplate = `This PostgreSQL statement failed:

%s

Error: %s

Write ONE corrected SELECT statement for the question below. Output ONLY the SQL.

Table: %s
Columns: %s
%s
Question: %s`

func sqlPrompt(question string, qctx domain.QuestionContext) string {
	return fmt.Sprintf(sqlPromptTemplate,
		tableOr(qctx), columnsOr(qctx), filtersBlock(qctx), question)
}

func repairPrompt(question string, qctx domain.QuestionContext, prevErr error) string {
	return fmt.Sprintf(repairPromptTemplate,
		prevErr, tableOr(qctx), columnsOr(qctx), filtersBlock(qctx), question)
}

func repairPromptWithSQL(question string, qctx domain.QuestionContext, sql string, execErr error) string {
	return fmt.Sprintf(repairWithSQLTemplate,
		sql, execErr, tableOr(qctx), columnsOr(qctx), filtersBlock(qctx), question)
}

func tableOr(qctx domain.QuestionContext) string {
	if qctx.ResolvedTable != "" {
		return qctx.ResolvedTable
	}
	return "(unknown)"
}

func columnsOr(qctx domain.QuestionContext) string {
	if len(qctx.AvailableColumns) > 0 {
		return strings.Join(qctx.AvailableColumns, ", ")
	}
	return "(unknown)"
}

func filtersBlock(qctx domain.QuestionContext) string {
	if len(qctx.ScopeFilters) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("Filters:\n")
	for _, k := range sortedKeys(qctx.ScopeFilters) {
		fmt.Fprintf(&sb, "- %s = %s\n", k, qctx.ScopeFilters[k])
	}
	return sb.String()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

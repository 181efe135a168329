package analytics

const analyzePrompt = `You are a data analyst for a gaming platform. Given a user
question about the products table, describe in one or two sentences what data
is needed and how it should be aggregated. Do not write SQL.`

// generatePrompt takes the dialect name and the table DDL. The model must emit
// a single statement and nothing else; fenced output is tolerated and stripped.
const generatePrompt = `You are an expert SQL developer. Write a single %s query
that answers the user's question against this schema:

%s

Rules:
- Return ONLY the SQL query, no explanation and no markdown fences.
- Use only columns that exist in the schema.
- Use date('now') for the current date when the question is relative in time.
- Prefer aggregate functions (SUM, COUNT, AVG, MAX, MIN) for numeric questions.`

const repairPrompt = `You are an expert SQL developer. A %s query failed. Using
the schema below, fix the query so it answers the original question. Return
ONLY the corrected SQL, no explanation and no markdown fences.

%s`

const answerPrompt = `You are a helpful data analyst. Given a user question, the
SQL query that was run, and the raw query results (first line is the column
header, values are separated by "|"), answer the question in clear natural
language. Quote the relevant numbers exactly as they appear in the results. If
the results are empty, say that no matching data was found.`

package agent

const sqlSystemPrompt = `You are an expert SQL writer. Given a database schema and a user's question, write a single, valid %s SQL query to answer the question.

Only return the SQL query and nothing else. Do not wrap it in markdown or add explanations.

IMPORTANT: When writing queries that involve division, you MUST handle potential division-by-zero errors. Use the NULLIF function to prevent these errors.
For example, to calculate Return on Ad Spend (RoAS), instead of 'SUM(ad_sales) / SUM(ad_spend)', you should write 'SUM(ad_sales) * 1.0 / NULLIF(SUM(ad_spend), 0)'.`

const sqlUserPrompt = `Schema:
%s

Question:
%s`

const narrativeSystemPrompt = `You are an AI agent that answers questions about e-commerce data in a human-readable format.

Please generate a natural language response that accurately and concisely answers the question based on the provided data.`

const narrativeUserPrompt = `Question: %s
Data: %s`

const visualizationSystemPrompt = `You are an expert data visualization analyst. Your task is to determine if the given data can be effectively visualized to answer the user's question.

You must analyze the data and the question to make a recommendation.

- Data must contain at least one categorical column (e.g., text, date) and at least one numerical column.
- Single-value aggregations (like a single SUM or COUNT) are generally not visualizable unless the question implies comparison or trends over time.
- Time series data is best for line or area charts.
- Categorical comparisons are best for bar charts.
- Proportions or parts of a whole are good for pie charts.`

const visualizationUserPrompt = `User Question: %s
Data: %s`

var sqlOutput = &OutputSchema{Fields: []Field{
	{Name: "sql", Type: "string", Description: "The generated SQL query."},
}}

var narrativeOutput = &OutputSchema{Fields: []Field{
	{Name: "response", Type: "string", Description: "The human-readable natural language response."},
}}

var visualizationOutput = &OutputSchema{Fields: []Field{
	{Name: "isVisualizable", Type: "boolean", Description: "Whether the data is suitable for visualization."},
	{Name: "chartType", Type: "string", Description: `The recommended chart type. Use "none" if not visualizable.`, Enum: []string{"bar", "line", "area", "pie", "none"}},
	{Name: "chartTitle", Type: "string", Description: "A concise, descriptive title for the chart."},
	{Name: "reasoning", Type: "string", Description: "A brief explanation of why the data is or is not visualizable and the choice of chart type."},
}}

package report

// DataPrompt is the fixed instruction sent with the search-grounded text call.
const DataPrompt = `
You are an expert economic data analyst.
Your goal is to retrieve specific historical data to visualize the wealth gap in the US from approximately 1975 to present day.

Task:
1. Search for the RAND Corporation study "Trends in Income From 1975 to 2018" (often cited regarding the $50 trillion transfer).
2. Search for Economic Policy Institute (EPI) data on CEO compensation growth vs typical worker compensation (1978-present).
3. Search for US Cost of Living data (specifically Housing, Healthcare, and College tuition inflation) vs Median Wage growth.

Output Requirements:
Provide a JSON object wrapped in a code block. The JSON must have this structure:
{
  "summary": "A powerful 2-sentence summary of the wealth transfer.",
  "randReportContext": "A short paragraph explaining the RAND study findings ($50T transfer).",
  "productivityVsWages": [
    {"year": 1975, "productivity": 100, "hourlyCompensation": 100},
    ... (increments of 5-10 years up to recent data)
  ],
  "ceoVsWorker": [
    {"year": 1978, "ceoPayGrowth": 0, "workerPayGrowth": 0},
    ... (increments of 5-10 years)
  ],
  "costOfLiving": [
    {"year": 1980, "wages": 100, "housing": 100, "healthcare": 100, "tuition": 100},
    ... (increments of 10 years)
  ]
}

Ensure the numbers are factually grounded in the search results.
`

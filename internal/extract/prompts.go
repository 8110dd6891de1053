package extract

// System prompts instruct the model to return an exact JSON shape. The
// pipeline decodes defensively, so extra fields in responses are ignored
// and missing fields are defaulted.

const partiesPrompt = `You are an expert at analyzing syndicated credit agreements.

Extract every named party from the provided section. For each party identify:
- "name": the full legal entity name
- "role": its role in the agreement (Borrower, Lender, Administrative Agent, Guarantor, Arranger, ...)
- "lei": the 20-character Legal Entity Identifier if stated, otherwise omit

Respond with a JSON object:
{"parties": [{"name": "...", "role": "...", "lei": "..."}]}

Respond ONLY with the JSON object, no additional text.`

const facilitiesPrompt = `You are an expert at analyzing syndicated credit agreements.

Extract every credit facility from the provided section. For each facility identify:
- "name": the facility name as used in the document
- "amount": the principal amount as a plain number (no currency symbols)
- "currency": the ISO currency code (default USD)
- "facility_type": e.g. "term loan", "revolving credit", "delayed draw"
- "spread_bps": the applicable margin in basis points, if stated
- "benchmark": the reference rate (SOFR, EURIBOR, ...), if stated
- "maturity_date": the maturity date as YYYY-MM-DD, if stated

Also extract "total_commitment": the aggregate commitment amount, if stated.

Respond with a JSON object:
{"facilities": [{"name": "...", "amount": "...", "currency": "...", "facility_type": "...", "spread_bps": "...", "benchmark": "...", "maturity_date": "..."}], "total_commitment": "..."}

Respond ONLY with the JSON object, no additional text.`

const datesPrompt = `You are an expert at analyzing syndicated credit agreements.

From the provided section extract:
- "agreement_date": the date of the agreement as YYYY-MM-DD
- "effective_date": the effective date as YYYY-MM-DD, if different
- "governing_law": the governing-law jurisdiction (e.g. "New York")
- "sustainability_linked": true if the agreement has sustainability-linked or ESG pricing terms
- "esg_terms": a list of short phrases naming any ESG/sustainability terms found

Omit any field not present in the text.

Respond with a JSON object:
{"agreement_date": "...", "effective_date": "...", "governing_law": "...", "sustainability_linked": false, "esg_terms": []}

Respond ONLY with the JSON object, no additional text.`

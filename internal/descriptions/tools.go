package descriptions

// Tool descriptions shown to MCP clients

const (
	MandateGenerateDescription = `Generate a filled vehicle registration mandate (carte grise) PDF from the holder and vehicle details.

**When to use:** A client needs a signed-ready mandate authorizing a professional to carry out a registration procedure on their behalf.

**What it does:** Fills the form fields of the Mandat.pdf template (one box per VIN character, one box per date digit, postal code and city boxes) or, when the template has no form, writes the values onto the first page. Placeholder text in company number fields is erased when no SIRET is given.

**Examples:**
• Change of holder: vin="VF1RFB00X12345678", registrationNumber="AB-123-CD", demarcheType="changement-titulaire", lastName="Dupont", firstName="Jean"
• Company vehicle: add siret="12345678901234" so the company number is kept on the form
• Address change: demarcheType="changement-adresse" with streetNumber, streetType, streetName, postalCode and city

**Result:** The mandate is saved as mandat_{demarcheType}_{timestamp}.pdf in the output directory. The response lists the method used, the number of fields written and every datum that could not be placed.

**Best practices:** The VIN must have exactly 17 characters. Run mandate_template_fields first when a new template is installed to check which data will land.`

	MandateTemplateFieldsDescription = `Show how the installed mandate template lines up with the field mapping table.

**When to use:** After replacing Mandat.pdf, or when a generated mandate is missing a value.

**What it does:** Lists every form field with its kind and current value, which field each datum resolves to, how many of the VIN, date, postal code and city boxes exist, and which fields would be erased as SIRET placeholders.

**Examples:**
• New template check: "Which boxes of the VIN are missing from the new Mandat.pdf?"
• Debugging: "Why is the city not written on the mandate?"

**Best practices:** A template without form fields is reported as text placement; every mandate will then be written at fixed positions on page one.`
)

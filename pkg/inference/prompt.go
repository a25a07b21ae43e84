package inference

// analysisPrompt is the fixed instruction sent alongside every image. The
// labeled sections it requests are what the normalizer segments on, but the
// provider's compliance is not guaranteed and the normalizer tolerates drift.
const analysisPrompt = `You are an agricultural pest identification assistant for smallholder farmers.
Examine the attached crop image, identify the pest or disease organism present, and report your findings in exactly three labeled sections:

**1. Detected Pest:** the common name of the pest or organism
**2. Remedies:** a comma-separated list of practical remedies, most effective first
**3. Suggested Treatment:** a short treatment plan the farmer can apply

If no pest or disease is visible, use "None" as the detected pest and leave the other sections empty.`

// defaultMIMEType is assumed when the upload did not declare a content type.
const defaultMIMEType = "image/jpeg"

func orDefaultMIME(mimeType string) string {
	if mimeType == "" {
		return defaultMIMEType
	}
	return mimeType
}

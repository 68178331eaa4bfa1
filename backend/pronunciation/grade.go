package pronunciation

// Grade decides whether a spoken attempt matches a sentence.
//
// A non-empty attempt reading is authoritative and must equal the expected
// reading. Without one (reading conversion failed or was unavailable) the
// raw transcript may match either the expected reading or the literal text.
func Grade(attemptReading, attemptTranscript, expectedReading, expectedText string) bool {
	reading := Normalize(attemptReading)
	wantReading := Normalize(expectedReading)
	if reading != "" {
		return reading == wantReading
	}

	transcript := Normalize(attemptTranscript)
	if transcript == "" {
		return false
	}
	return transcript == wantReading || transcript == Normalize(expectedText)
}

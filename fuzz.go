package dsp

func Fuzz(data []byte) int {
	var _, err = NewBundle().
		Namespace("fuzz").
		AddTemplateString("input", string(data)).
		Compile()

	if err != nil {
		return 0
	}

	return 1
}

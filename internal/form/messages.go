package form

// Messages holds the user-facing strings shown by the form.
type Messages struct {
	ChooseFile       string
	NoTextFound      string
	AnalysisFailed   string // followed by the raw response body
	ConnectionFailed string
	NotAllowed       string
	TooLarge         string
}

// ArabicMessages are the strings of the original web form.
var ArabicMessages = Messages{
	ChooseFile:       "الرجاء اختيار ملف PDF أولاً!",
	NoTextFound:      "لم يتم العثور على نص.",
	AnalysisFailed:   "حدث خطأ أثناء التحليل: ",
	ConnectionFailed: "حدث خطأ أثناء الاتصال بالخادم.",
	NotAllowed:       "نوع الملف غير مسموح به، الرجاء اختيار ملف PDF.",
	TooLarge:         "حجم الملف أكبر من الحد المسموح به.",
}

// EnglishMessages is the English catalog.
var EnglishMessages = Messages{
	ChooseFile:       "Please choose a PDF file first!",
	NoTextFound:      "No text was found.",
	AnalysisFailed:   "An error occurred during analysis: ",
	ConnectionFailed: "An error occurred while connecting to the server.",
	NotAllowed:       "This file type is not allowed, please choose a PDF file.",
	TooLarge:         "The file is larger than the allowed size.",
}

// MessagesFor returns the catalog for a language code, Arabic by default.
func MessagesFor(lang string) Messages {
	if lang == "en" {
		return EnglishMessages
	}
	return ArabicMessages
}

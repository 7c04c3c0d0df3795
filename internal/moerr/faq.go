package moerr

import "fmt"

// FAQURL is the public troubleshooting page that numbered hints point to.
const FAQURL = "https://docs.openvino.ai/latest/openvino_docs_MO_DG_prepare_model_Model_Optimizer_FAQ.html"

// FAQ returns the trailing hint appended to configuration errors that have a
// dedicated entry in the FAQ.
func FAQ(question int) string {
	return fmt.Sprintf("\n For more information please refer to Model Optimizer FAQ, question #%d. (%s?question=%d#question-%d)",
		question, FAQURL, question, question)
}

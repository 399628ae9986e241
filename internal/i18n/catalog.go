// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package i18n

// =============================================================================
// BUILT-IN CATALOG
// =============================================================================

// catalog maps key -> language -> text. It mirrors what the backend serves
// from /api/translations, plus a handful of client-only strings, and is used
// whenever the fetched map lacks a key.
var catalog = map[string]map[string]string{
	"welcome_title": {
		English: "Central KYC Records Registry",
		Hindi:   "सेंट्रल केवाईसी रिकॉर्ड्स रजिस्ट्री",
	},
	"welcome_msg": {
		English: "Hello!! Welcome to Central KYC Records Registry",
		Hindi:   "नमस्कार!! सेंट्रल केवाईसी रिकॉर्ड्स रजिस्ट्री में आपका स्वागत है",
	},
	"select_language": {
		English: "Please select your preferred language:",
		Hindi:   "कृपया अपनी पसंदीदा भाषा चुनें:",
	},
	"select_user_type": {
		English: "Please select your user type:",
		Hindi:   "कृपया अपना उपयोगकर्ता प्रकार चुनें:",
	},
	"registered_entity": {
		English: "Registered Entity (RE)",
		Hindi:   "पंजीकृत संस्था (RE)",
	},
	"client": {
		English: "Client",
		Hindi:   "ग्राहक",
	},
	"select_option": {
		English: "Please choose from the following options:",
		Hindi:   "कृपया निम्नलिखित विकल्पों में से चुनें:",
	},
	"check_status": {
		English: "Check Status (API Integration)",
		Hindi:   "स्थिति जाँचें (API एकीकरण)",
	},
	"raise_query": {
		English: "Raise Query/Complaint",
		Hindi:   "प्रश्न/शिकायत दर्ज करें",
	},
	"ask_question": {
		English: "Ask a Question",
		Hindi:   "प्रश्न पूछें",
	},
	"type_question": {
		English: "Type your question here...",
		Hindi:   "यहाँ अपने प्रश्न लिखें...",
	},
	"hello_response": {
		English: "Hello! How can I help you today?",
		Hindi:   "नमस्कार! मैं आज आपकी कैसे मदद कर सकता/सकती हूँ?",
	},
	"not_understood": {
		English: "Sorry, I am unable to understand your query. Please elaborate or provide more information so that I can assist you.",
		Hindi:   "क्षमा करें, मैं आपकी क्वेरी को समझने में असमर्थ हूँ। कृपया विस्तार से बताएं या अधिक जानकारी प्रदान करें ताकि मैं आपकी सहायता कर सकूँ।",
	},
	"redirect_msg": {
		English: "Sorry, I am unable to understand your query. You may please contact our Call Centre at 1800-XXX-XXXX / 022-XXXX-XXXX (toll-free number). Our helpdesk executives are available from 8:00 a.m. to 8:00 p.m. Monday to Saturday. Alternatively, you may write to us at support@ckycindia.in, and we will be happy to assist you. Have a nice day!",
		Hindi:   "क्षमा करें, मैं आपकी क्वेरी को समझने में असमर्थ हूँ। आप कृपया हमारे कॉल सेंटर पर 1800-XXX-XXXX / 022-XXXX-XXXX (टोल-फ्री नंबर) पर संपर्क कर सकते हैं। हमारे हेल्पडेस्क कार्यकारी सोमवार से शनिवार सुबह 8:00 बजे से रात 8:00 बजे तक उपलब्ध हैं। वैकल्पिक रूप से, आप हमें support@ckycindia.in पर लिख सकते हैं, और हमें आपकी सहायता करने में खुशी होगी। शुभ दिन!",
	},
	"thank_you": {
		English: "Thank you for contacting Central KYC Records Registry. Have a nice day!",
		Hindi:   "सेंट्रल केवाईसी रिकॉर्ड्स रजिस्ट्री से संपर्क करने के लिए धन्यवाद। शुभ दिन!",
	},
	"feedback_prompt": {
		English: "Could you tell us about your experience? We'd be thrilled to hear from you!",
		Hindi:   "क्या आप हमें अपने अनुभव के बारे में बता सकते हैं? हमें आपसे सुनकर बहुत खुशी होगी!",
	},
	"feedback_bad": {
		English: "We apologize that we could not assist you to your satisfaction. We truly value your feedback and will review this interaction to understand how we can do better. Thank you for contacting Central KYC Records Registry. Have a nice day.",
		Hindi:   "हमें खेद है कि हम आपकी संतुष्टि के अनुसार सहायता नहीं कर सके। हम वास्तव में आपकी प्रतिक्रिया को महत्व देते हैं और यह समझने के लिए इस बातचीत की समीक्षा करेंगे कि हम कैसे बेहतर कर सकते हैं। सेंट्रल केवाईसी रिकॉर्ड्स रजिस्ट्री से संपर्क करने के लिए धन्यवाद। शुभ दिन।",
	},
	"feedback_good": {
		English: "We appreciate your feedback and it is great to know that your query is resolved. We will be happy to serve you in future. Thank you for contacting Central KYC Records Registry. Have a nice day!",
		Hindi:   "हम आपकी प्रतिक्रिया की सराहना करते हैं और यह जानकर बहुत अच्छा लगा कि आपकी क्वेरी का समाधान हो गया है। भविष्य में आपकी सेवा करके हमें खुशी होगी। सेंट्रल केवाईसी रिकॉर्ड्स रजिस्ट्री से संपर्क करने के लिए धन्यवाद। शुभ दिन!",
	},
	"feedback_submitted": {
		English: "Submitted successfully.",
		Hindi:   "सफलतापूर्वक जमा किया गया।",
	},
	"status_registration": {
		English: "Know Status of Registration",
		Hindi:   "पंजीकरण की स्थिति जानें",
	},
	"wallet_inquiry": {
		English: "Wallet Inquiry",
		Hindi:   "वॉलेट पूछताछ",
	},
	"mismatch_details": {
		English: "Mismatch in CKYC Details",
		Hindi:   "CKYC विवरण में बेमेल",
	},
	"enter_reg_number": {
		English: "Please enter your FI registration/acknowledgment number:",
		Hindi:   "कृपया अपना FI पंजीकरण/पावती नंबर दर्ज करें:",
	},
	"enter_re_number": {
		English: "Please enter your RE registration number (numeric value only):",
		Hindi:   "कृपया अपना RE पंजीकरण नंबर दर्ज करें (केवल संख्यात्मक मान):",
	},
	"wallet_options": {
		English: "Please select:\n1. Available Balance\n2. TDS on Hold\n3. Threshold Limit\n4. Minimum Balance Limit",
		Hindi:   "कृपया चुनें:\n1. उपलब्ध शेष\n2. होल्ड पर TDS\n3. सीमा सीमा\n4. न्यूनतम शेष सीमा",
	},
	"enter_ckyc_number": {
		English: "Please enter your 14-digit CKYC number:",
		Hindi:   "कृपया अपना 14-अंकीय CKYC नंबर दर्ज करें:",
	},
	"send": {
		English: "Send",
		Hindi:   "भेजें",
	},
	"back": {
		English: "Back to Menu",
		Hindi:   "मेनू पर वापस जाएँ",
	},
	"end_chat": {
		English: "End Chat",
		Hindi:   "चैट समाप्त करें",
	},
	"very_bad": {
		English: "Very Bad",
		Hindi:   "बहुत खराब",
	},
	"bad": {
		English: "Bad",
		Hindi:   "खराब",
	},
	"good": {
		English: "Good",
		Hindi:   "अच्छा",
	},
	"very_good": {
		English: "Very Good",
		Hindi:   "बहुत अच्छा",
	},
	"excellent": {
		English: "Excellent",
		Hindi:   "उत्कृष्ट",
	},
	"raise_query_redirect": {
		English: "You will be redirected to the Web Portal to raise your Query/Complaint.",
		Hindi:   "आपको अपना प्रश्न/शिकायत दर्ज करने के लिए वेब पोर्टल पर भेजा जाएगा।",
	},

	// Client-only strings.
	"menu": {
		English: "Menu",
		Hindi:   "मेनू",
	},
	"online": {
		English: "Online",
		Hindi:   "ऑनलाइन",
	},
	"checking": {
		English: "Checking...",
		Hindi:   "जाँच हो रही है...",
	},
	"generic_error": {
		English: "Something went wrong. Please try again.",
		Hindi:   "कुछ गलत हो गया। कृपया पुनः प्रयास करें।",
	},
	"lookup_error": {
		English: "Error occurred",
		Hindi:   "त्रुटि हुई",
	},
	"numeric_only": {
		English: "Please enter numeric value only",
		Hindi:   "कृपया केवल संख्यात्मक मान दर्ज करें",
	},
	"portal_redirecting": {
		English: "Redirecting to the Web Portal...",
		Hindi:   "वेब पोर्टल पर रीडायरेक्ट हो रहा है...",
	},
	"new_chat": {
		English: "Start New Chat",
		Hindi:   "नई चैट शुरू करें",
	},
}

// Builtin returns the built-in text for key in lang, falling back to English
// and finally to the key itself.
func Builtin(lang, key string) string {
	entry, ok := catalog[key]
	if !ok {
		return key
	}
	if v, ok := entry[lang]; ok {
		return v
	}
	return entry[English]
}

// Catalog returns a fresh copy of every built-in string for lang. Keys
// without text in lang use the English text.
func Catalog(lang string) map[string]string {
	out := make(map[string]string, len(catalog))
	for key := range catalog {
		out[key] = Builtin(lang, key)
	}
	return out
}

// Keys returns every key in the built-in catalog, in no particular order.
func Keys() []string {
	keys := make([]string, 0, len(catalog))
	for key := range catalog {
		keys = append(keys, key)
	}
	return keys
}

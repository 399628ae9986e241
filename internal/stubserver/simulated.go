// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stubserver

import (
	"fmt"

	"github.com/jeranaias/ckyc-assist/internal/i18n"
)

// Simulated lookup records. A real deployment answers these from the
// registry; the stub only needs plausible, stable text.

func localized(lang string, texts map[string]string) string {
	if t, ok := texts[lang]; ok {
		return t
	}
	return texts[i18n.English]
}

// statusTexts returns the candidate status replies for a registration
// number; one is picked at random.
func statusTexts(lang, reg string) []string {
	if lang == i18n.Hindi {
		return []string{
			fmt.Sprintf("पंजीकरण/पावती संख्या: %s\nस्थिति: प्रसंस्करण के अंतर्गत\nजमा करने की तिथि: 2026-01-15\nअपेक्षित पूर्णता: 3-5 कार्य दिवस", reg),
			fmt.Sprintf("पंजीकरण/पावती संख्या: %s\nस्थिति: स्वीकृत\nCKYC नंबर सफलतापूर्वक जनरेट हो गया है।", reg),
			fmt.Sprintf("पंजीकरण/पावती संख्या: %s\nस्थिति: सत्यापन लंबित\nआपके दस्तावेज़ समीक्षाधीन हैं।", reg),
		}
	}
	return []string{
		fmt.Sprintf("Registration/Acknowledgment Number: %s\nStatus: Under Processing\nSubmitted on: 2026-01-15\nExpected completion: 3-5 working days", reg),
		fmt.Sprintf("Registration/Acknowledgment Number: %s\nStatus: Accepted\nCKYC Number has been generated successfully.", reg),
		fmt.Sprintf("Registration/Acknowledgment Number: %s\nStatus: Pending Verification\nYour documents are under review.", reg),
	}
}

// walletText returns the wallet figure for option 1-4. Unknown options get
// the available balance.
func walletText(lang, re string, option int) string {
	texts := map[int]map[string]string{
		1: {
			i18n.English: fmt.Sprintf("RE Number: %s\nAvailable Balance: ₹15,250.75\nLast Transaction: 2026-02-05", re),
			i18n.Hindi:   fmt.Sprintf("RE नंबर: %s\nउपलब्ध शेष: ₹15,250.75\nअंतिम लेनदेन: 2026-02-05", re),
		},
		2: {
			i18n.English: fmt.Sprintf("RE Number: %s\nTDS on Hold: ₹1,525.08\nFinancial Year: 2025-26", re),
			i18n.Hindi:   fmt.Sprintf("RE नंबर: %s\nहोल्ड पर TDS: ₹1,525.08\nवित्तीय वर्ष: 2025-26", re),
		},
		3: {
			i18n.English: fmt.Sprintf("RE Number: %s\nThreshold Limit: ₹50,000.00\nCurrent Usage: ₹34,749.25", re),
			i18n.Hindi:   fmt.Sprintf("RE नंबर: %s\nसीमा सीमा: ₹50,000.00\nवर्तमान उपयोग: ₹34,749.25", re),
		},
		4: {
			i18n.English: fmt.Sprintf("RE Number: %s\nMinimum Balance Limit: ₹5,000.00\nCurrent Balance: ₹15,250.75", re),
			i18n.Hindi:   fmt.Sprintf("RE नंबर: %s\nन्यूनतम शेष सीमा: ₹5,000.00\nवर्तमान शेष: ₹15,250.75", re),
		},
	}
	t, ok := texts[option]
	if !ok {
		t = texts[1]
	}
	return localized(lang, t)
}

func mismatchText(lang, ckyc string) string {
	return localized(lang, map[string]string{
		i18n.English: fmt.Sprintf("CKYC Number: %s\nRegistered Financial Institution: State Bank of India\nLast Updated: 2026-01-20\nStatus: Active\n\n"+
			"If you find any mismatch, please contact your Financial Institution to initiate the correction process.", ckyc),
		i18n.Hindi: fmt.Sprintf("CKYC नंबर: %s\nपंजीकृत वित्तीय संस्थान: भारतीय स्टेट बैंक\nअंतिम अपडेट: 2026-01-20\nस्थिति: सक्रिय\n\n"+
			"यदि आपको कोई बेमेल मिलता है, तो कृपया सुधार प्रक्रिया शुरू करने के लिए अपने वित्तीय संस्थान से संपर्क करें।", ckyc),
	})
}

func invalidCKYCText(lang string) string {
	return localized(lang, map[string]string{
		i18n.English: "Please enter a valid 14-digit CKYC number.",
		i18n.Hindi:   "कृपया एक मान्य 14-अंकीय CKYC नंबर दर्ज करें।",
	})
}

// Package insurance provides the concrete consultation tools over a
// static product dataset. The dataset stands in for the carrier's
// product systems; amounts and rules are illustrative.
package insurance

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Product is one sellable insurance product.
type Product struct {
	Code                   string   `json:"code"`
	Name                   string   `json:"name"`
	Category               string   `json:"category"`
	Highlights             []string `json:"highlights"`
	RenewalType            string   `json:"renewal_type"`
	TermYears              int      `json:"term_years,omitempty"`
	MinAge                 int      `json:"min_age"`
	MaxAge                 int      `json:"max_age"`
	MaxRenewalAge          int      `json:"max_renewal_age,omitempty"`
	PlanTypes              []string `json:"plan_types,omitempty"`
	Channels               []string `json:"channels"`
	SimplifiedUnderwriting bool     `json:"simplified_underwriting"`
}

// Rider is an optional or mandatory attachment to a product.
type Rider struct {
	Code string `json:"code"`
	Name string `json:"name"`
	Type string `json:"type"` // 의무부가 or 선택
	Desc string `json:"desc"`
}

type premiumTable struct {
	base      int
	ageFactor float64
	genderM   float64
	genderF   float64
}

type waitingPeriod struct {
	Exemption     string `json:"면책기간"`
	Reduction     string `json:"감액기간"`
	CoverageStart string `json:"보장개시일"`
}

type historyFlag struct {
	keywords   []string
	isKnockout bool
	note       string
}

var products = map[string]Product{
	"B00115023": {
		Code:        "B00115023",
		Name:        "(무)암치료보험",
		Category:    "암/건강",
		Highlights:  []string{"암 진단비 집중 보장", "유사암 포함", "갱신형 설계"},
		RenewalType: "갱신형", TermYears: 10,
		MinAge: 20, MaxAge: 70, MaxRenewalAge: 90,
		PlanTypes: []string{"1종(일반형)", "2종(고액형)"},
		Channels:  []string{"TM", "온라인"},
	},
	"B00197011": {
		Code:        "B00197011",
		Name:        "(무)튼튼치아보험",
		Category:    "치아",
		Highlights:  []string{"크라운·임플란트 정액 보장", "충전치료 보장", "면책기간 90일"},
		RenewalType: "갱신형", TermYears: 10,
		MinAge: 19, MaxAge: 65, MaxRenewalAge: 80,
		PlanTypes: []string{"기본형", "고급형"},
		Channels:  []string{"TM", "CM", "온라인"},
	},
	"B00312011": {
		Code:        "B00312011",
		Name:        "(무)든든종신보험",
		Category:    "사망/종신",
		Highlights:  []string{"평생 사망 보장", "해약환급금 설계 선택", "납입면제 조건"},
		RenewalType: "비갱신형(종신)",
		MinAge:      20, MaxAge: 60,
		PlanTypes: []string{"1종(표준형)", "2종(저해약환급형)"},
		Channels:  []string{"설계사", "TM"},
	},
	"B00172014": {
		Code:        "B00172014",
		Name:        "(무)간편건강보험",
		Category:    "건강/입원",
		Highlights:  []string{"유병자 간편심사", "입원·수술비 보장", "3대 고지로 가입"},
		RenewalType: "갱신형", TermYears: 15,
		MinAge: 30, MaxAge: 75, MaxRenewalAge: 95,
		Channels:               []string{"TM"},
		SimplifiedUnderwriting: true,
	},
}

var premiumTables = map[string]premiumTable{
	"B00115023": {base: 28000, ageFactor: 0.020, genderM: 1.10, genderF: 0.95},
	"B00197011": {base: 32000, ageFactor: 0.012, genderM: 1.00, genderF: 1.00},
	"B00312011": {base: 95000, ageFactor: 0.030, genderM: 1.15, genderF: 0.90},
	"B00172014": {base: 41000, ageFactor: 0.025, genderM: 1.08, genderF: 0.97},
}

var riders = map[string][]Rider{
	"B00115023": {
		{Code: "R-115-01", Name: "암진단특약", Type: "의무부가", Desc: "일반암 진단 시 진단비 지급"},
		{Code: "R-115-02", Name: "유사암진단특약", Type: "선택", Desc: "갑상선암·기타피부암 등 유사암 진단비"},
		{Code: "R-115-03", Name: "암입원특약", Type: "선택", Desc: "암 직접치료 목적 입원 시 입원일당"},
	},
	"B00197011": {
		{Code: "R-197-01", Name: "보존치료특약", Type: "의무부가", Desc: "충전·크라운 보존치료비 정액 지급"},
		{Code: "R-197-02", Name: "보철치료특약", Type: "선택", Desc: "임플란트·브릿지·틀니 보철치료비"},
	},
	"B00312011": {
		{Code: "R-312-01", Name: "재해사망특약", Type: "선택", Desc: "재해로 인한 사망 시 추가 보험금"},
		{Code: "R-312-02", Name: "납입면제특약", Type: "선택", Desc: "암·뇌출혈 등 진단 시 이후 보험료 납입 면제"},
	},
	"B00172014": {
		{Code: "R-172-01", Name: "질병입원특약", Type: "의무부가", Desc: "질병 입원 1일당 입원비 지급"},
		{Code: "R-172-02", Name: "수술특약", Type: "선택", Desc: "수술 종류별 차등 수술비 지급"},
		{Code: "R-172-03", Name: "간병인지원특약", Type: "선택", Desc: "입원 중 간병인 사용 시 지원금"},
	},
}

var coverages = map[string]map[string]map[string]string{
	"B00115023": {
		"진단": {
			"일반암진단비":  "최대 3,000만원 (1회한)",
			"유사암진단비":  "일반암의 20% (갑상선암·기타피부암 등)",
			"재진단암진단비": "최대 1,000만원 (2년 경과 후)",
		},
		"입원": {
			"암직접치료입원일당": "1일당 10만원 (120일 한도)",
		},
	},
	"B00197011": {
		"보존치료": {
			"충전치료":  "1개당 10만원 (아말감·레진 등)",
			"크라운치료": "1개당 30만원",
		},
		"보철치료": {
			"임플란트": "1개당 100만원 (연간 3개 한도)",
			"틀니":   "보철물당 100만원",
		},
	},
	"B00312011": {
		"사망": {
			"사망보험금":   "주계약 가입금액 전액",
			"재해사망보험금": "특약 가입 시 추가 지급",
		},
	},
	"B00172014": {
		"입원": {
			"질병입원일당": "1일당 5만원 (180일 한도)",
			"상해입원일당": "1일당 5만원 (180일 한도)",
		},
		"수술": {
			"질병수술비": "수술 종류별 30만~300만원",
		},
	},
}

var waitingPeriods = map[string]waitingPeriod{
	"B00115023": {
		Exemption:     "계약일로부터 90일 면책 (암 진단)",
		Reduction:     "계약 후 1년 미만 진단 시 50% 감액",
		CoverageStart: "계약일로부터 91일째 되는 날",
	},
	"B00197011": {
		Exemption:     "보존치료 90일·보철치료 180일 면책",
		Reduction:     "보장개시 후 1년 미만 50% 감액",
		CoverageStart: "치료 유형별 면책기간 경과 후",
	},
	"B00172014": {
		Exemption:     "질병 입원 30일 면책",
		Reduction:     "계약 후 1년 미만 입원 시 50% 감액",
		CoverageStart: "계약일로부터 31일째 되는 날",
	},
}

var claimGuides = map[string][]string{
	"공통": {
		"1. 고객센터(1588-0058) 또는 모바일앱에서 청구 접수",
		"2. 청구서·신분증 사본·사고 증빙 서류 제출",
		"3. 심사 후 영업일 3일 이내 지급 (추가 심사 시 연장 안내)",
	},
	"암진단": {
		"조직검사 결과지·진단서 필수",
		"최초 진단 확정일 기준으로 면책·감액 기간 적용 여부 확인",
	},
	"입원": {
		"입퇴원확인서·진료비 영수증 제출",
		"통원은 입원일당 지급 대상이 아님",
	},
	"치과": {
		"치과 진료기록부·치식(치아번호)이 표기된 진단서 제출",
		"동일 치아 중복 치료는 상위 치료 1건만 인정",
	},
	"사망": {
		"사망진단서·기본증명서·수익자 확인 서류 제출",
		"수익자 지정이 없는 경우 법정상속인 순위 적용",
	},
}

// underwriting knock-out and caveat keywords, common and per product.
var historyFlags = map[string][]historyFlag{
	"_common": {
		{keywords: []string{"암", "cancer"}, isKnockout: false,
			note: "암 병력은 부담보 또는 거절 사유가 될 수 있어 전문 심사가 필요합니다."},
		{keywords: []string{"투석", "신부전"}, isKnockout: true,
			note: "신부전·투석 치료 중에는 인수가 어렵습니다."},
	},
	"B00115023": {
		{keywords: []string{"암", "cancer"}, isKnockout: true,
			note: "암 기왕력은 암보험 인수 거절 사유입니다."},
	},
	"B00172014": {
		{keywords: []string{"고혈압", "당뇨"}, isKnockout: false,
			note: "간편심사 상품으로 고혈압·당뇨 투약 중에도 3대 고지 충족 시 가입 가능합니다."},
	},
}

// termsClause is one clause snippet the terms query tool searches over.
type termsClause struct {
	Source      string `json:"source"`
	ProductCode string `json:"product_code,omitempty"`
	Text        string `json:"text"`
}

var termsClauses = []termsClause{
	{Source: "표준약관 제5조", Text: "회사는 계약일로부터 90일이 지난 날의 다음 날부터 암에 대한 보장을 개시합니다. 다만 갱신계약의 경우 면책기간을 적용하지 않습니다.", ProductCode: "B00115023"},
	{Source: "표준약관 제7조", Text: "계약일로부터 1년 미만에 암 진단이 확정된 경우 보험금의 50%를 지급합니다.", ProductCode: "B00115023"},
	{Source: "별표1 치아보험 약관", Text: "보존치료는 보장개시일부터 90일, 보철치료는 180일의 면책기간을 적용하며, 동일 치아에 둘 이상의 치료가 있는 경우 상위 치료 1건만 보장합니다.", ProductCode: "B00197011"},
	{Source: "표준약관 제3조", Text: "피보험자가 고의로 자신을 해친 경우, 계약자 또는 수익자가 고의로 피보험자를 해친 경우에는 보험금을 지급하지 않습니다."},
	{Source: "표준약관 제12조", Text: "계약자 또는 피보험자는 청약 시 고지의무 대상 사항을 사실대로 알려야 하며, 위반 시 회사는 계약을 해지할 수 있습니다."},
	{Source: "별표2 간편심사 특칙", Text: "간편심사 계약은 3개월 이내 입원·수술·추가검사 권유, 2년 이내 입원·수술, 5년 이내 암 진단·치료 여부의 3가지 사항만 고지합니다.", ProductCode: "B00172014"},
}

// mustJSON marshals a tool result. Tool outputs feed straight back to
// the model, so marshal failures degrade to an error string instead of
// aborting the turn.
func mustJSON(v interface{}) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf(`{"error": %q}`, err.Error())
	}
	return string(raw)
}

// requireUserInfo returns a non-empty prompt when required personal
// fields are missing, so the model asks the user instead of guessing.
func requireUserInfo(fields map[string]bool) string {
	var missing []string
	for _, name := range []string{"나이", "성별"} {
		if present, tracked := fields[name]; tracked && !present {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return ""
	}
	return mustJSON(map[string]interface{}{
		"need_user_info": missing,
		"message": fmt.Sprintf(
			"정확한 안내를 위해 다음 정보가 필요합니다: %s. 사용자에게 질문해 주세요.",
			strings.Join(missing, ", ")),
	})
}

func calcPremium(productCode string, age int, gender string) (int, bool) {
	table, ok := premiumTables[productCode]
	if !ok {
		return 0, false
	}
	ageF := 1.0 + float64(age-30)*table.ageFactor
	genderF := 1.0
	switch strings.ToUpper(gender) {
	case "M":
		genderF = table.genderM
	case "F":
		genderF = table.genderF
	}
	monthly := int(float64(table.base) * ageF * genderF)
	if monthly < 5000 {
		monthly = 5000
	}
	return monthly, true
}

func formatWon(amount int) string {
	s := fmt.Sprintf("%d", amount)
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String() + "원"
}

func productNotFound(code string) string {
	codes := make([]string, 0, len(products))
	for c := range products {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return mustJSON(map[string]interface{}{
		"error":     fmt.Sprintf("상품 코드 '%s'를 찾을 수 없습니다.", code),
		"available": codes,
	})
}

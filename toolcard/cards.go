package toolcard

// builtinCards is the code-defined card set. Confusion pairs point at
// each other in WhenNotToUse so the LLM-facing descriptions separate
// similar tools:
//
//	product_search     <-> coverage_summary   (list vs coverage)
//	coverage_summary   <-> coverage_detail    (full summary vs one type)
//	claim_guide        <-> coverage_detail    (procedure vs scope)
//	premium_estimate   <-> plan_options       (amount vs payment plan)
var builtinCards = []ToolCard{
	{
		Name:    "product_search",
		Purpose: "판매 중인 보험 상품 목록을 키워드·카테고리로 검색한다. 어떤 상품이 있는지, 목록·리스트가 필요할 때 사용한다. 보험료·보장 조회 전 상품코드를 모를 때 선행 호출한다.",
		WhenToUse: []string{
			"우리 회사 상품 뭐 있어?",
			"치아보험 있어?",
			"암보험 상품 뭐가 있어?",
			"건강보험 종류 알려줘",
			"전체 상품 리스트 보여줘",
			"판매 중인 상품 전체 목록",
			"간편심사 상품 목록",
			"치매 관련 상품 있어?",
			"상품 카탈로그 보여줘",
			"실버치아보험 있어?",
			"첫날부터 암보험 뭐야?",
		},
		WhenNotToUse: []string{
			"특정 상품(코드 있음)의 보장 내용이 뭐야? → coverage_summary 사용",
			"이 상품 보험료가 얼마야? → premium_estimate 사용",
			"이 상품에 가입할 수 있어? → underwriting_precheck 사용",
			"이 상품 약관에서 면책 조건 찾아줘 → rag_terms_query_engine 사용",
		},
		Tags: []string{"상품조회", "목록", "검색", "카탈로그", "리스트"},
	},
	{
		Name:    "product_get",
		Purpose: "상품 코드(B로 시작)로 특정 상품의 기본 정보를 조회한다.",
		WhenToUse: []string{
			"B00197011 상품 정보 보여줘",
			"이 상품 코드로 상세 정보 알려줘",
			"B00115023 어떤 상품이야?",
		},
		WhenNotToUse: []string{
			"상품 이름만 알고 코드가 없다 → product_search 로 먼저 검색",
			"보장 내용이 궁금하다 → coverage_summary 사용",
			"보험료가 궁금하다 → premium_estimate 사용",
		},
		Tags: []string{"상품조회", "코드조회"},
	},
	{
		Name:    "premium_estimate",
		Purpose: "나이·성별을 입력해 특정 상품의 예상 월 보험료를 산출한다. 보험료 금액이 얼마인지 계산할 때 사용한다.",
		WhenToUse: []string{
			"이 상품 보험료 얼마야?",
			"40세 남성 보험료 계산해줘",
			"월 납입액이 얼마나 돼?",
			"보험료 산출해줘",
			"월 보험료가 얼마야?",
			"나이별 보험료 알려줘",
			"65세 남성 실버치아보험 보험료",
		},
		WhenNotToUse: []string{
			"여러 납입 플랜·방식을 비교하고 싶다 → plan_options 사용",
		},
		Tags: []string{"보험료", "산출", "월납입액", "보험료계산"},
	},
	{
		Name:    "plan_options",
		Purpose: "상품의 납입 방식·납입 기간 플랜 옵션(10년납, 20년납, 전기납 등)을 조회한다. 어떤 납입 방식이 있는지 알고 싶을 때 사용한다.",
		WhenToUse: []string{
			"납입 기간 옵션 뭐 있어?",
			"10년납 20년납 중 선택 가능해?",
			"납입 방식 알려줘",
			"플랜 종류 뭐가 있어?",
			"납입 기간 선택지",
		},
		WhenNotToUse: []string{
			"실제 보험료 금액이 궁금하다 → premium_estimate 사용",
		},
		Tags: []string{"납입플랜", "납입방식", "납입기간"},
	},
	{
		Name:    "coverage_summary",
		Purpose: "특정 상품(코드 필요)의 전체 보장 내용을 한눈에 요약한다. 이 상품이 무엇을 보장하는지 전체 범위가 궁금할 때 사용한다.",
		WhenToUse: []string{
			"이 상품 보장이 뭐야?",
			"B00197011 보장 내용 알려줘",
			"이 보험 뭘 보장해줘?",
			"보장 범위 전체 보여줘",
			"보장 내용 요약해줘",
			"어떤 질병을 보장하는지 알고 싶어",
			"어떤 보장이 있어?",
		},
		WhenNotToUse: []string{
			"어떤 상품들이 있는지 목록이 궁금하다 → product_search 사용",
			"암이나 치아 등 특정 보장 유형만 상세히 알고 싶다 → coverage_detail 사용",
			"보험료가 궁금하다 → premium_estimate 사용",
		},
		Tags: []string{"보장내용", "보장범위", "요약"},
	},
	{
		Name:    "coverage_detail",
		Purpose: "상품의 특정 보장 유형(암·사망·치아·입원 등)을 상세 조회한다. 특정 질병·사고 유형의 보장만 따로 보고 싶을 때 사용한다.",
		WhenToUse: []string{
			"암 진단금이 얼마야?",
			"치아 보장이 구체적으로 어떻게 돼?",
			"사망보험금 상세 내용",
			"이 상품에서 입원 보장만 따로 보고 싶어",
			"암 보장 상세히 알려줘",
			"암에 대한 보장만 따로 알려줘",
		},
		WhenNotToUse: []string{
			"전체 보장 요약이 필요하다 → coverage_summary 사용",
			"보험료가 궁금하다 → premium_estimate 사용",
		},
		Tags: []string{"보장내용", "상세조회", "특정보장"},
	},
	{
		Name:    "claim_guide",
		Purpose: "보험금 청구 유형(사망·진단·입원·수술)별 절차와 필요 사항을 안내한다. 청구하는 방법, 절차, 프로세스가 궁금할 때 사용한다.",
		WhenToUse: []string{
			"보험금 청구 어떻게 해?",
			"암 진단 후 청구 절차",
			"사망보험금 청구 방법",
			"입원비 청구하려면?",
			"청구 방법 알려줘",
			"보험금 어떻게 받아?",
			"보험금 청구 절차 알려줘",
		},
		WhenNotToUse: []string{
			"어떤 상황이 보장되는지 내용이 궁금하다 → coverage_detail 사용",
		},
		Tags: []string{"청구", "청구절차", "청구방법"},
	},
	{
		Name:    "underwriting_precheck",
		Purpose: "나이·성별·병력 요약을 기반으로 이 고객이 보험에 가입 가능한지 인수 적합성을 사전 판단한다. 특정 고객의 병력·건강 이력으로 가입 가능 여부를 확인할 때 사용한다.",
		WhenToUse: []string{
			"당뇨 이력 있어도 가입 가능해?",
			"고혈압인데 암보험 들 수 있어?",
			"병력 있는 고객 인수 가능 여부 확인",
			"55세 남성 기존 수술 이력 있는데 가입돼?",
			"기존 질환 있는데 보험 가입 될까?",
		},
		WhenNotToUse: []string{
			"상품 목록이 궁금하다 → product_search 사용",
		},
		Tags: []string{"인수심사", "가입가능여부", "병력", "인수적합성"},
	},
	{
		Name:    "compliance_misleading_check",
		Purpose: "판매 스크립트·멘트에 금칙어·과장표현·규정 위반 표현이 있는지 검사한다. 특정 문구나 표현의 사용 가능 여부를 확인할 때 사용한다.",
		WhenToUse: []string{
			"이 문구 써도 돼?",
			"이 스크립트에 문제 있어?",
			"금칙어 검사해줘",
			"과장광고 여부 확인",
			"이 표현 사용해도 괜찮아?",
			"규정 위반 문구인지 확인해줘",
			"판매 문구 검사해줘",
		},
		Tags: []string{"컴플라이언스", "금칙어", "스크립트검사", "문구검사"},
	},
	{
		Name:    "privacy_masking",
		Purpose: "텍스트에서 주민번호·전화번호·카드번호·이메일 등 개인정보를 마스킹한다.",
		WhenToUse: []string{
			"이 텍스트에서 개인정보 지워줘",
			"주민번호 마스킹",
			"개인정보 비식별화",
			"전화번호 마스킹해줘",
		},
		Tags: []string{"개인정보", "마스킹", "PII"},
	},
	{
		Name:    "rider_bundle_recommend",
		Purpose: "고객의 목표(암 대비·치아 보호 등)에 맞는 특약 조합을 추천한다. 어떤 특약을 붙이면 좋은지 추천이 필요할 때 사용한다.",
		WhenToUse: []string{
			"암 대비에 좋은 특약 추천해줘",
			"치아 관련 특약 조합",
			"어떤 특약 붙이는 게 좋아?",
			"특약 추천해줘",
			"특약 조합 추천",
		},
		Tags: []string{"특약추천", "특약조합", "특약선택"},
	},
	{
		Name:    "rag_terms_query_engine",
		Purpose: "약관·규정 문서에서 면책·예외·정의·고지의무 등 관련 내용을 검색한다. 약관 원문, 규정 문서를 검색해야 할 때 사용한다.",
		WhenToUse: []string{
			"약관에서 면책 조건 찾아줘",
			"고지의무 규정이 약관에 어떻게 나와 있어?",
			"약관상 암의 정의",
			"약관에서 찾아줘",
			"약관 원문 찾아줘",
			"약관에 따르면",
		},
		WhenNotToUse: []string{
			"보장 금액이나 구조가 궁금하다 → coverage_summary 또는 coverage_detail 사용",
		},
		Tags: []string{"RAG", "약관", "규정", "약관검색"},
	},
}

package classify

// Subjects of the default vocabulary (会社正式科目体系).
const (
	SubjectRevenue         = "売上"
	SubjectPurchases       = "仕入"
	SubjectOutsourcing     = "外注費"
	SubjectLabor           = "人件費"
	SubjectEntertainment   = "交際費"
	SubjectTravel          = "旅費交通費"
	SubjectVehicle         = "車両費"
	SubjectRent            = "地代家賃"
	SubjectUtilities       = "光熱費"
	SubjectSupplies        = "消耗品"
	SubjectCommunication   = "通信費"
	SubjectFees            = "支払手数料"
	SubjectWelfare         = "福利厚生"
	SubjectInsurance       = "保険料"
	SubjectTaxes           = "租税公課"
	SubjectMisc            = "雑費"
	SubjectLoan            = "事業借入"
	SubjectLongTermPayable = "長期未払金"
	SubjectTransfer        = "口座振替"
	SubjectCashWithdrawal  = "現金引出"
	SubjectInterest        = "受取利息"
)

// Display categories of the default vocabulary.
const (
	CategoryRevenue  = "🟢 売上"
	CategoryTransfer = "⚪ 振替"
	CategoryOther    = "⚪ その他"
)

// Sub-subjects assigned by the outbound fallback and the staff rule set.
const (
	SubStaff         = "スタッフ"
	SubCorporateWork = "法人委託"
)

// DefaultRuleBook returns the built-in vocabulary, derived from 1,204 real
// statement rows of a veterinary and equine business.
func DefaultRuleBook() *RuleBook {
	return &RuleBook{
		Common: RuleSet{Name: "common", Rules: []Rule{
			{Pattern: "振替 事業口座", Subject: SubjectTransfer, SubSubject: "事業口座"},
			{Pattern: "振替 個人口座", Subject: SubjectTransfer, SubSubject: "個人口座"},
			{Pattern: "カミデ　ケンタロウ", Subject: SubjectTransfer, SubSubject: "資金移動"},
			{Pattern: "ATM", Subject: SubjectCashWithdrawal},
			{Pattern: "Mastercardデビット年会費", Subject: SubjectMisc, SubSubject: "カード年会費"},
			{Pattern: "普通預金 利息", Subject: SubjectInterest},
			{Pattern: "振込手数料", Subject: SubjectFees, SubSubject: "振込手数料"},
		}},
		Outbound: []RuleSet{
			{Name: "outsourcing", Rules: []Rule{
				{Pattern: "カ）キタマ", Subject: SubjectOutsourcing, SubSubject: "業務委託"},
				{Pattern: "サダモト　ユウイチ", Subject: SubjectOutsourcing, SubSubject: "業務委託"},
				{Pattern: "タグチ　カズオミ", Subject: SubjectOutsourcing, SubSubject: "業務委託"},
				{Pattern: "トミタ　ジユン", Subject: SubjectOutsourcing, SubSubject: "業務委託"},
				{Pattern: "カ）マルサセンタ−", Subject: SubjectOutsourcing, SubSubject: "業務委託"},
				{Pattern: "ド）カリテイ−", Subject: SubjectOutsourcing, SubSubject: "業務委託"},
				{Pattern: "ナ−ヴイツク　インタ−ナシヨナル", Subject: SubjectOutsourcing, SubSubject: "輸入・貿易"},
				{Pattern: "イ−ビ−エムトレ−デイング", Subject: SubjectOutsourcing, SubSubject: "輸入・貿易"},
				{Pattern: "カ）エクワインベツトグル−プ", Subject: SubjectOutsourcing, SubSubject: "馬医療"},
				{Pattern: "ゼイ）スバルゴウドウカイケイ", Subject: SubjectOutsourcing, SubSubject: "税理士"},
				{Pattern: "ザイ）リユウツウシステムカイハツ", Subject: SubjectOutsourcing, SubSubject: "システム開発"},
				{Pattern: "ザイ）セイブツカガクアンゼンケンキユウシヨ", Subject: SubjectOutsourcing, SubSubject: "研究費"},
				{Pattern: "クイ−ンビ−キヤピタル（カ", Subject: SubjectOutsourcing, SubSubject: "経営コンサル"},
				{Pattern: "カ）アイレツクス", Subject: SubjectOutsourcing, SubSubject: "外注"},
				{Pattern: "カツヤマネクステ−ジ", Subject: SubjectOutsourcing, SubSubject: "外注"},
				{Pattern: "アナザ−レ−ン", Subject: SubjectOutsourcing, SubSubject: "外注"},
			}},
			{Name: "purchases", Rules: []Rule{
				{Pattern: "フリ−マンニユ−トラグル−プ", Subject: SubjectPurchases, SubSubject: "栄養補助食品"},
				{Pattern: "シゼンケンコウシヤ", Subject: SubjectPurchases, SubSubject: "健康食品"},
				{Pattern: "ＢＩＯ　ＡＣＴＩＶＥＳ　ＪＡＰＡＮ", Subject: SubjectPurchases, SubSubject: "サプリ・輸入"},
				{Pattern: "ニホンゼンヤクコウギヨウ", Subject: SubjectPurchases, SubSubject: "動物薬"},
				{Pattern: "ニホンゼンヤクコウギヨウカブシキ", Subject: SubjectPurchases, SubSubject: "動物薬"},
				{Pattern: "エムピ−アグロ．カ", Subject: SubjectPurchases, SubSubject: "飼料・動物薬"},
				{Pattern: "MHF)MPｱｸﾞﾛ", Subject: SubjectPurchases, SubSubject: "飼料・動物薬"},
				{Pattern: "MPｱｸﾞﾛ", Subject: SubjectPurchases, SubSubject: "飼料・動物薬"},
				{Pattern: "カ）ムラカミキユウシヤ", Subject: SubjectPurchases, SubSubject: "飼料"},
				{Pattern: "ムラカミキユウシヤ", Subject: SubjectPurchases, SubSubject: "飼料"},
				{Pattern: "カ）シ−アイシ−フロンテイア", Subject: SubjectPurchases, SubSubject: "ITシステム"},
				{Pattern: "シグニ（カ", Subject: SubjectPurchases, SubSubject: "仕入"},
				{Pattern: "シグニ", Subject: SubjectPurchases, SubSubject: "仕入"},
				{Pattern: "ニホンガ−リツク", Subject: SubjectPurchases, SubSubject: "食材"},
			}},
			{Name: "financing", Rules: []Rule{
				{Pattern: "ｶ)ﾆﾂﾎﾟﾝｾｲｻｸｷﾝﾕｳｺｳｺ", Subject: SubjectLoan, SubSubject: "政策金融公庫"},
				{Pattern: "カ）　ニツポンセイサクキンユウコウコ", Subject: SubjectLoan, SubSubject: "政策金融公庫"},
				{Pattern: "ニツポンセイサクキンユウコウコ", Subject: SubjectLoan, SubSubject: "政策金融公庫"},
				{Pattern: "マネ−フオワ−ドケツサイ", Subject: SubjectLongTermPayable, SubSubject: "クレジット"},
				{Pattern: "APｱﾌﾟﾗｽ", Subject: SubjectLongTermPayable, SubSubject: "クレジット"},
				{Pattern: "アメリカンエキスプレスインタ−ナシヨナルインコ−ポレイテツド", Subject: SubjectLongTermPayable, SubSubject: "Amex"},
				{Pattern: "アメリカンエキスプレスインタ−ナシヨナル", Subject: SubjectLongTermPayable, SubSubject: "Amex"},
				{Pattern: "ミツイスミトモカ−ド", Subject: SubjectLongTermPayable, SubSubject: "クレジット"},
			}},
			{Name: "fees", Rules: []Rule{
				{Pattern: "カ）ベイフラワ−", Subject: SubjectFees, SubSubject: "販売手数料"},
				{Pattern: "MHF)ﾔﾏﾄｳﾝﾕ", Subject: SubjectFees, SubSubject: "配送料"},
				{Pattern: "ﾔﾏﾄｳﾝﾕ", Subject: SubjectFees, SubSubject: "配送料"},
				{Pattern: "カ）シムネツト", Subject: SubjectFees, SubSubject: "通信・システム"},
			}},
			{Name: "fixed", Rules: []Rule{
				{Pattern: "エアウオ−タ−ヒガシニホン", Subject: SubjectUtilities, SubSubject: "ガス"},
				{Pattern: "フクシマトヨタ", Subject: SubjectVehicle},
				{Pattern: "ラクスル", Subject: SubjectSupplies, SubSubject: "印刷・消耗品"},
			}},
			{Name: "misc", Rules: []Rule{
				{Pattern: "フクシマケンジユウイシカイ", Subject: SubjectTaxes, SubSubject: "獣医師会"},
				{Pattern: "ゼンコクコウエイケイバジユウイシキヨウカイ", Subject: SubjectTaxes, SubSubject: "競馬獣医師会"},
				{Pattern: "ソウマキヨウタンカイ", Subject: SubjectTaxes, SubSubject: "業界団体"},
				{Pattern: "ジヤパンケネルクラブ", Subject: SubjectTaxes, SubSubject: "JKC"},
				{Pattern: "オダカシヨウコウカイ", Subject: SubjectTaxes, SubSubject: "商工会"},
				{Pattern: "ジ−ワンサラブレツドクラブ", Subject: SubjectTaxes, SubSubject: "馬主クラブ"},
				{Pattern: "カワサキゴ−ゴ−ドツグクラブ", Subject: SubjectTaxes, SubSubject: "犬クラブ"},
				{Pattern: "ヤマナシシンキン　エヌビ−シ−シユツパンキヨク", Subject: SubjectMisc, SubSubject: "出版"},
			}},
			staffRuleSet(
				"カミデ　サオリ",
				"オオムラ　トシノリ",
				"コイズミ　ユカリ",
				"ギヨウトク　マリア",
				"キタハラ　ミユキ",
				"サカモト　ミカ",
				"タカハシ　ナオミ",
				"サカイ　ケイコ",
				"ハタケヤマ　ヨシカズ",
				"ヤスカワ　エミコ",
				"ナガクラ　ミスズ",
				"ヤガミ　アヤノブ",
				"サトウ　ユウナ",
				"サトウ　カヨコ",
				"ムトウ　アユミ",
				"ヨシキ　カツヒコ",
				"ナガタ　ユキヒロ",
				"オオイシ　ユウヤ",
				"ウエスギ　ユカリ",
				"フジタ　カナ",
				"タムラ　シンジ",
				"サクライ　ハルミチ",
				"カンザキ　アユミ",
				"オリベツト",
			),
		},
		Fallback: Fallback{
			CorporateMarkers: []string{"カ）", "（カ", "ゼイ）", "ザイ）"},
			Corporate:        Result{Subject: SubjectOutsourcing, SubSubject: SubCorporateWork},
			Default:          Result{Subject: SubjectLabor, SubSubject: SubStaff},
		},
		Inbound: Inbound{
			Subject: SubjectRevenue,
			Groups: []KeywordGroup{
				{SubSubject: "馬主・育成", Keywords: []string{"ステ−ブル", "フア−ム", "チヤンピオンズ", "マウンテン", "アキバ", "オイワケ", "ナストレ−ニング"}},
				{SubSubject: "決済代行", Keywords: []string{"リクル−ト", "ペイメント", "ＡＩＲペイ", "デイ−ジ−フイナンシヤル"}},
				{SubSubject: "Amazon", Keywords: []string{"アマゾン"}},
				{SubSubject: "検査収入", Keywords: []string{"ラボ"}},
				{SubSubject: "花・装飾（売上）", Keywords: []string{"ベイフラワ"}},
				{SubSubject: "PayPal", Keywords: []string{"ＰＡＹＰＡＬ"}},
			},
		},
		Categories: []CategoryMapping{
			{Subject: SubjectRevenue, Category: CategoryRevenue},
			{Subject: SubjectPurchases, Category: "🔵 仕入"},
			{Subject: SubjectOutsourcing, Category: "🟡 外注費"},
			{Subject: SubjectLabor, Category: "🟠 人件費"},
			{Subject: SubjectEntertainment, Category: "🟣 交際費"},
			{Subject: SubjectTravel, Category: "🟣 旅費交通費"},
			{Subject: SubjectVehicle, Category: "🟣 車両費"},
			{Subject: SubjectRent, Category: "🟣 地代家賃"},
			{Subject: SubjectUtilities, Category: "🟣 光熱費"},
			{Subject: SubjectSupplies, Category: "🟣 消耗品"},
			{Subject: SubjectCommunication, Category: "🟣 通信費"},
			{Subject: SubjectFees, Category: "🟣 支払手数料"},
			{Subject: SubjectWelfare, Category: "🟣 福利厚生"},
			{Subject: SubjectInsurance, Category: "🟣 保険料"},
			{Subject: SubjectTaxes, Category: "🟣 租税公課"},
			{Subject: SubjectMisc, Category: "🟣 雑費"},
			{Subject: SubjectLoan, Category: "🔴 事業借入"},
			{Subject: SubjectLongTermPayable, Category: "🔴 長期未払金"},
			{Subject: SubjectTransfer, Category: CategoryTransfer},
			{Subject: SubjectCashWithdrawal, Category: CategoryTransfer},
			{Subject: SubjectInterest, Category: CategoryRevenue},
		},
		DefaultCategory: CategoryOther,
	}
}

// staffRuleSet books every listed name as staff cost.
func staffRuleSet(names ...string) RuleSet {
	rules := make([]Rule, len(names))
	for i, n := range names {
		rules[i] = Rule{Pattern: n, Subject: SubjectLabor, SubSubject: SubStaff}
	}
	return RuleSet{Name: "staff", Rules: rules}
}
